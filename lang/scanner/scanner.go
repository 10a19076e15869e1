// Package scanner tokenizes wisp source text for the compiler, one token at
// a time.
package scanner

import (
	"github.com/mna/wisp/lang/token"
)

// Scanner pulls tokens out of a source buffer. The zero value is not usable;
// construct one with New. The source buffer passed to New must outlive every
// Token the Scanner returns, since a Token's Lexeme is a slice into it.
type Scanner struct {
	src     string
	start   int // start of the token being scanned
	current int // character currently being considered
	line    int
}

// New returns a Scanner ready to tokenize src.
func New(src string) *Scanner {
	return &Scanner{src: src, line: 1}
}

// Scan returns the next token in the source. At end of input it returns an
// EOF token on every call, forever.
func (s *Scanner) Scan() token.Token {
	s.skipWhitespaceAndComments()
	s.start = s.current

	if s.atEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	if isAlpha(c) {
		return s.identifier()
	}
	if isDigit(c) {
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LEFT_PAREN)
	case ')':
		return s.make(token.RIGHT_PAREN)
	case '{':
		return s.make(token.LEFT_BRACE)
	case '}':
		return s.make(token.RIGHT_BRACE)
	case ';':
		return s.make(token.SEMICOLON)
	case ',':
		return s.make(token.COMMA)
	case '.':
		return s.make(token.DOT)
	case '-':
		return s.make(token.MINUS)
	case '+':
		return s.make(token.PLUS)
	case '/':
		return s.make(token.SLASH)
	case '*':
		return s.make(token.STAR)
	case '!':
		return s.make(s.ifMatch('=', token.BANG_EQUAL, token.BANG))
	case '=':
		return s.make(s.ifMatch('=', token.EQUAL_EQUAL, token.EQUAL))
	case '<':
		return s.make(s.ifMatch('=', token.LESS_EQUAL, token.LESS))
	case '>':
		return s.make(s.ifMatch('=', token.GREATER_EQUAL, token.GREATER))
	case '"':
		return s.string()
	}

	return s.errorToken("Unexpected character.")
}

func (s *Scanner) atEnd() bool { return s.current >= len(s.src) }

func (s *Scanner) advance() byte {
	c := s.src[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.src) {
		return 0
	}
	return s.src[s.current+1]
}

func (s *Scanner) ifMatch(expected byte, ifTrue, ifFalse token.Type) token.Type {
	if s.atEnd() || s.src[s.current] != expected {
		return ifFalse
	}
	s.current++
	return ifTrue
}

func (s *Scanner) skipWhitespaceAndComments() {
	for {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.advance()
		case '\n':
			s.line++
			s.advance()
		case '/':
			switch s.peekNext() {
			case '/':
				for s.peek() != '\n' && !s.atEnd() {
					s.advance()
				}
			case '*':
				s.skipBlockComment()
			default:
				return
			}
		default:
			return
		}
	}
}

func (s *Scanner) skipBlockComment() {
	s.advance() // '/'
	s.advance() // '*'
	for {
		if s.atEnd() {
			return // unterminated block comment; let the caller hit EOF naturally
		}
		if s.peek() == '*' && s.peekNext() == '/' {
			s.advance()
			s.advance()
			return
		}
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}
}

func (s *Scanner) identifier() token.Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.advance()
	}
	return s.make(s.identifierType())
}

// identifierType classifies the identifier just scanned (s.start:s.current)
// as a keyword or a plain identifier using a hand-coded trie over the first
// one or two characters, the same dispatch shape as the reference scanner:
// branch once on the first byte, and on any second byte needed to
// disambiguate keywords that share a prefix, then confirm the remaining
// suffix with a single comparison.
func (s *Scanner) identifierType() token.Type {
	lit := s.src[s.start:s.current]
	if len(lit) == 0 {
		return token.IDENTIFIER
	}
	switch lit[0] {
	case 'a':
		return s.checkKeyword(lit, 1, "nd", token.AND)
	case 'c':
		return s.checkKeyword(lit, 1, "lass", token.CLASS)
	case 'e':
		return s.checkKeyword(lit, 1, "lse", token.ELSE)
	case 'f':
		if len(lit) > 1 {
			switch lit[1] {
			case 'a':
				return s.checkKeyword(lit, 2, "lse", token.FALSE)
			case 'o':
				return s.checkKeyword(lit, 2, "r", token.FOR)
			case 'u':
				return s.checkKeyword(lit, 2, "n", token.FUN)
			}
		}
	case 'i':
		return s.checkKeyword(lit, 1, "f", token.IF)
	case 'n':
		return s.checkKeyword(lit, 1, "il", token.NIL)
	case 'o':
		return s.checkKeyword(lit, 1, "r", token.OR)
	case 'p':
		return s.checkKeyword(lit, 1, "rint", token.PRINT)
	case 'r':
		return s.checkKeyword(lit, 1, "eturn", token.RETURN)
	case 's':
		return s.checkKeyword(lit, 1, "uper", token.SUPER)
	case 't':
		if len(lit) > 1 {
			switch lit[1] {
			case 'h':
				return s.checkKeyword(lit, 2, "is", token.THIS)
			case 'r':
				return s.checkKeyword(lit, 2, "ue", token.TRUE)
			}
		}
	case 'v':
		return s.checkKeyword(lit, 1, "ar", token.VAR)
	case 'w':
		return s.checkKeyword(lit, 1, "hile", token.WHILE)
	}
	return token.IDENTIFIER
}

// checkKeyword reports typ if lit, past offset, is exactly rest; otherwise
// the identifier is a plain one.
func (s *Scanner) checkKeyword(lit string, offset int, rest string, typ token.Type) token.Type {
	if lit[offset:] == rest {
		return typ
	}
	return token.IDENTIFIER
}

func (s *Scanner) number() token.Token {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance() // consume the '.'
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	return s.make(token.NUMBER)
}

func (s *Scanner) string() token.Token {
	for s.peek() != '"' && !s.atEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}
	if s.atEnd() {
		return s.errorToken("Unterminated string.")
	}
	s.advance() // closing quote
	return s.make(token.STRING)
}

func (s *Scanner) make(typ token.Type) token.Token {
	return token.Token{Type: typ, Lexeme: s.src[s.start:s.current], Line: s.line}
}

func (s *Scanner) errorToken(msg string) token.Token {
	return token.Token{Type: token.ERROR, Lexeme: msg, Line: s.line}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
