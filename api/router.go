// Package api contains all endpoints available
package api

import (
	"fmt"
	"time"

	"jamforge/catalog-api/db"
	"jamforge/catalog-api/middleware"
	"jamforge/catalog-api/security"
	"jamforge/catalog-api/service"
	"jamforge/catalog-api/storage"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	ginzap "github.com/gin-contrib/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

var store = persist.NewMemoryStore(time.Minute)

type API struct {
	DB      *gorm.DB
	Router  *gin.Engine
	Argon   *security.ArgonHash
	Store   *storage.S3Store
	Ingest  *service.Ingestor
	Proxy   *service.Proxy
	Members *service.TeamMembership
}

func NewRouter() (*API, error) {
	a := &API{}

	db, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	a.DB = db

	makeLogger()

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				if v := c.GetString("userID"); v != "" {
					fields = append(fields, zap.String("userID", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true
	a.Router.MaxMultipartMemory = 8 << 20

	jwt := middleware.RequireAuth(db)
	optional := middleware.OptionalAuth(db, false)
	// The proxy route is the only place a token query parameter is
	// accepted, sandboxed iframes can't send headers
	proxyAuth := middleware.OptionalAuth(db, true)

	maxBuildSize := viper.GetInt64("upload.max_build_size")
	maxCoverSize := viper.GetInt64("upload.max_cover_size")

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// HEAD /api/validate		-> Validates a bearer token
		main.HEAD("/validate", jwt, a.Validate)
	}

	users := main.Group("/users", middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/users		-> Registers a new user
		users.POST("", a.UserRegister)

		// POST /api/users/login	-> Logs in a user and returns a bearer token
		users.POST("/login", a.UserLogin)
	}

	teams := main.Group("/teams", jwt, middleware.BodySizeLimiter(1<<20))
	{
		// POST /api/teams				-> Creates a new team
		teams.POST("", a.TeamCreate)

		// GET /api/teams				-> Lists the caller's teams
		teams.GET("", a.TeamFetchMine)

		// POST /api/teams/:teamID/members		-> Adds a member to a team
		teams.POST("/:teamID/members", a.TeamMemberAdd)

		// DELETE /api/teams/:teamID/members/:userID	-> Removes a member
		teams.DELETE("/:teamID/members/:userID", a.TeamMemberRemove)
	}

	games := main.Group("/games")
	{
		// GET /api/games			-> Lists published games, optional ?tag= filter
		games.GET("", cacheFor(30), a.GameList)

		// POST /api/games			-> Creates a new game listing
		games.POST("", jwt, middleware.BodySizeLimiter(1<<20), a.GameCreate)

		// GET /api/games/:gameID		-> Fetches one game, visibility gated
		games.GET("/:gameID", optional, a.GameFetch)

		// PATCH /api/games/:gameID		-> Updates metadata
		games.PATCH("/:gameID", jwt, middleware.BodySizeLimiter(1<<20), a.GameUpdate)

		// POST /api/games/:gameID/publish	-> editing/archived -> published
		games.POST("/:gameID/publish", jwt, a.GamePublish)

		// POST /api/games/:gameID/archive	-> any -> archived
		games.POST("/:gameID/archive", jwt, a.GameArchive)

		// POST /api/games/:gameID/status	-> Forces any status, superadmin only
		games.POST("/:gameID/status", jwt, middleware.BodySizeLimiter(1<<20), a.GameForceStatus)

		// GET /api/games/:gameID/cover		-> Resolves the cover, signing keys on the fly
		games.GET("/:gameID/cover", optional, a.GameCover)

		// POST /api/games/:gameID/cover	-> Uploads a cover image
		games.POST("/:gameID/cover", jwt, middleware.BodySizeLimiter(maxCoverSize), a.GameCoverUpload)

		// GET /api/games/:gameID/comments	-> Lists comments, gated like the game
		games.GET("/:gameID/comments", optional, a.CommentList)

		// POST /api/games/:gameID/comments	-> Posts a comment
		games.POST("/:gameID/comments", jwt, middleware.BodySizeLimiter(64<<10), a.CommentCreate)

		// POST /api/games/:gameID/build	-> Uploads a new build archive
		games.POST("/:gameID/build", jwt, middleware.BodySizeLimiter(maxBuildSize), a.BuildUpload)
	}

	// GET /games/:gameID/build/*filePath	-> Proxies build assets through signed URLs
	router.GET("/games/:gameID/build/*filePath", proxyAuth, a.BuildServe)

	a.Argon = security.New()

	s3, err := storage.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object store, %w", err)
	}
	a.Store = s3

	a.Members = &service.TeamMembership{DB: db}
	a.Ingest = service.NewIngestor(db, s3)
	a.Proxy = service.NewProxy(s3, a.Members)

	return a, nil
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(store, time.Second*time.Duration(sec))
}
