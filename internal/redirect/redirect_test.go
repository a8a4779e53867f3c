package redirect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", "/"},
		{"root", "/", "/"},
		{"plain path", "/orders", "/orders"},
		{"path with query", "/orders?status=open&page=2", "/orders?status=open&page=2"},
		{"foreign origin", "https://evil.example/x", "/x"},
		{"foreign origin with query", "https://evil.example/x?y=1", "/x?y=1"},
		{"foreign origin without path", "https://evil.example", "/"},
		{"protocol relative", "//evil.example/x", "/x"},
		{"fragment dropped", "/invoices#top", "/invoices"},
		{"relative path resolved", "clients", "/clients"},
		{"javascript scheme", "javascript:alert(1)", "/"},
		{"unparseable with slash passes through", "/%zz", "/%zz"},
		{"unparseable without slash", "%zz", "/"},
		{"backslash host is escaped", "/\\evil.example", "/%5Cevil.example"},
		{"unparseable protocol relative", "//%zz", "/%zz"},
		{"many slashes", "///evil.example", "/evil.example"},
		{"tab before host", "/\t/evil.example", "/"},
		{"tab inside path", "/\t/evil.example/x", "/"},
		{"newline before host", "/\n/x", "/"},
		{"carriage return", "/orders\r\nSet-Cookie: a=b", "/"},
		{"nul byte", "/\x00x", "/"},
		{"delete byte", "/\x7f/evil.example", "/"},
		{"foreign origin with tab", "https://evil.example/\tx", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.raw))
		})
	}
}
