// Package highlight implements the intra-line highlighter (C5): a
// syntax map built from a chroma lexer collapsed onto the closed
// SyntaxTokenKind set, and an LCS-based token diff that marks
// intra-line changes on paired removed/added cells.
package highlight

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/sidediff/sidediff/internal/diffmodel"
)

// specialFileNames maps exact basenames to a lexer name, for files whose
// extension alone does not identify their language.
var specialFileNames = map[string]string{
	"Dockerfile":      "docker",
	"Makefile":        "make",
	"makefile":        "make",
	"go.mod":          "go",
	"go.sum":          "go",
	".gitignore":      "text",
}

// LexerForPath resolves the chroma lexer for a file, matching by
// basename first (for special names such as Dockerfile), then by
// extension, falling back to a plain-text lexer.
func LexerForPath(path string) chroma.Lexer {
	base := filepath.Base(path)
	if name, ok := specialFileNames[base]; ok {
		if l := lexers.Get(name); l != nil {
			return l
		}
	}
	if l := lexers.Match(path); l != nil {
		return l
	}
	return lexers.Fallback
}

// charSyntaxMap maps each byte offset of text to a SyntaxTokenKind,
// built by tokenising with the given lexer and classifying every
// emitted token's chroma.TokenType into the closed kind set. Unknown
// mappings default to Plain.
func charSyntaxMap(lexer chroma.Lexer, text string) []diffmodel.SyntaxTokenKind {
	out := make([]diffmodel.SyntaxTokenKind, len(text))
	if lexer == nil || text == "" {
		return out
	}
	iter, err := lexer.Tokenise(nil, text)
	if err != nil {
		return out
	}
	offset := 0
	for _, tok := range iter.Tokens() {
		kind := classifyTokenType(tok.Type)
		n := len(tok.Value)
		for i := 0; i < n && offset+i < len(out); i++ {
			out[offset+i] = kind
		}
		offset += n
	}
	return out
}

// classifyTokenType collapses chroma's hierarchical TokenType onto the
// closed SyntaxTokenKind set. Unmatched categories default to Plain.
func classifyTokenType(tt chroma.TokenType) diffmodel.SyntaxTokenKind {
	name := tt.String()
	switch {
	case strings.HasPrefix(name, "Comment"):
		return diffmodel.SyntaxComment
	case strings.HasPrefix(name, "LiteralString"):
		return diffmodel.SyntaxString
	case strings.HasPrefix(name, "LiteralNumber"):
		return diffmodel.SyntaxNumber
	case strings.HasPrefix(name, "NameFunction"):
		return diffmodel.SyntaxFunction
	case name == "NameClass" || name == "NameNamespace" || name == "NameBuiltinPseudo" || name == "KeywordType":
		return diffmodel.SyntaxTypeName
	case name == "NameConstant" || name == "KeywordConstant" || strings.HasPrefix(name, "Literal") && name != "LiteralString" && name != "LiteralNumber":
		return diffmodel.SyntaxConstant
	case strings.HasPrefix(name, "NameVariable"):
		return diffmodel.SyntaxVariable
	case strings.HasPrefix(name, "Keyword"):
		return diffmodel.SyntaxKeyword
	case strings.HasPrefix(name, "Operator") || name == "Punctuation":
		return diffmodel.SyntaxOperator
	default:
		return diffmodel.SyntaxPlain
	}
}
