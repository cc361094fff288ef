package service

import "testing"

func TestRewriteRelativeReferences(t *testing.T) {
	base := "https://play.example.com/games/g1/build"

	tests := []struct {
		name  string
		in    string
		token string
		want  string
	}{
		{
			name: "bare relative src",
			in:   `<script src="game.js"></script>`,
			want: `<script src="https://play.example.com/games/g1/build/game.js"></script>`,
		},
		{
			name: "dot slash prefix stripped",
			in:   `<link href="./style.css" rel="stylesheet">`,
			want: `<link href="https://play.example.com/games/g1/build/style.css" rel="stylesheet">`,
		},
		{
			name: "root relative collapses onto base",
			in:   `<img src="/assets/logo.png">`,
			want: `<img src="https://play.example.com/games/g1/build/assets/logo.png">`,
		},
		{
			name: "single quoted value",
			in:   `<script src='game.js'></script>`,
			want: `<script src='https://play.example.com/games/g1/build/game.js'></script>`,
		},
		{
			name: "uppercase attribute kept as written",
			in:   `<script SRC="game.js"></script>`,
			want: `<script SRC="https://play.example.com/games/g1/build/game.js"></script>`,
		},
		{
			name: "fragment untouched",
			in:   `<a href="#credits">credits</a>`,
			want: `<a href="#credits">credits</a>`,
		},
		{
			name: "absolute https untouched",
			in:   `<script src="https://cdn.example.com/lib.js"></script>`,
			want: `<script src="https://cdn.example.com/lib.js"></script>`,
		},
		{
			name: "scheme relative untouched",
			in:   `<img src="//cdn.example.com/pic.png">`,
			want: `<img src="//cdn.example.com/pic.png">`,
		},
		{
			name: "data URI untouched",
			in:   `<img src="data:image/png;base64,AAAA">`,
			want: `<img src="data:image/png;base64,AAAA">`,
		},
		{
			name: "blob URI untouched",
			in:   `<video src="blob:https://play.example.com/abc"></video>`,
			want: `<video src="blob:https://play.example.com/abc"></video>`,
		},
		{
			name: "mailto untouched",
			in:   `<a href="mailto:team@example.com">mail</a>`,
			want: `<a href="mailto:team@example.com">mail</a>`,
		},
		{
			name: "empty value untouched",
			in:   `<a href="">nothing</a>`,
			want: `<a href="">nothing</a>`,
		},
		{
			name:  "token carried onto rewritten URL",
			in:    `<script src="game.js"></script>`,
			token: "?token=abc",
			want:  `<script src="https://play.example.com/games/g1/build/game.js?token=abc"></script>`,
		},
		{
			name:  "token joins an existing query",
			in:    `<img src="a.png?v=2">`,
			token: "?token=abc",
			want:  `<img src="https://play.example.com/games/g1/build/a.png?v=2&token=abc">`,
		},
		{
			name:  "token never lands on absolute refs",
			in:    `<script src="https://cdn.example.com/lib.js"></script>`,
			token: "?token=abc",
			want:  `<script src="https://cdn.example.com/lib.js"></script>`,
		},
		{
			name: "mixed document rewrites only the relative half",
			in:   `<script src="boot.js"></script><script src="https://cdn.example.com/lib.js"></script>`,
			want: `<script src="https://play.example.com/games/g1/build/boot.js"></script><script src="https://cdn.example.com/lib.js"></script>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(RewriteRelativeReferences([]byte(tt.in), base, tt.token))
			if got != tt.want {
				t.Errorf("RewriteRelativeReferences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRewriteRelativeReferencesTrailingSlashBase(t *testing.T) {
	got := string(RewriteRelativeReferences(
		[]byte(`<script src="game.js"></script>`),
		"https://play.example.com/games/g1/build/",
		"",
	))

	want := `<script src="https://play.example.com/games/g1/build/game.js"></script>`
	if got != want {
		t.Errorf("RewriteRelativeReferences() = %q, want %q", got, want)
	}
}
