package parser

import (
	"strings"
	"unicode/utf8"
)

type lexMode int

const (
	// modeInline scans directive arguments and posting amounts.
	modeInline lexMode = iota
	// modeHeader scans a transaction header after its date.
	modeHeader
	// modeAccount scans the account name that opens a posting.
	modeAccount
)

type Lexer struct {
	input   string
	pos     int
	line    int
	column  int
	atStart bool
	mode    lexMode
}

func NewLexer(input string) *Lexer {
	return &Lexer{
		input:   input,
		line:    1,
		column:  1,
		atStart: true,
	}
}

func (l *Lexer) Next() Token {
	if l.pos >= len(l.input) {
		return l.makeToken(TokenEOF, "")
	}

	if l.atStart {
		return l.scanLineStart()
	}

	switch l.mode {
	case modeHeader:
		return l.scanHeader()
	case modeAccount:
		return l.scanPostingStart()
	default:
		return l.scanInLine()
	}
}

// RestOfLine consumes everything up to the end of the current line and
// returns it as a trimmed text token. The newline itself is left in place.
func (l *Lexer) RestOfLine() Token {
	startPos := l.position()
	start := l.pos
	for l.pos < len(l.input) && l.peek() != '\n' {
		l.advance()
	}
	l.atStart = false
	value := strings.TrimSpace(l.input[start:l.pos])
	return Token{Type: TokenText, Value: value, Pos: startPos, End: l.position()}
}

func (l *Lexer) scanLineStart() Token {
	l.atStart = false
	l.mode = modeInline

	ch := l.peek()
	switch {
	case ch == '\r':
		l.advance()
		if l.pos >= len(l.input) {
			return l.makeToken(TokenEOF, "")
		}
		l.atStart = true
		return l.scanLineStart()
	case ch == '\n':
		return l.scanNewline()
	case ch == ';' || ch == '#' || ch == '%' || ch == '*' || ch == '|':
		return l.scanComment()
	case ch == ' ' || ch == '\t':
		tok := l.scanIndent()
		l.mode = modeAccount
		return tok
	case isDigit(ch):
		tok := l.scanDate()
		l.mode = modeHeader
		return tok
	case ch == '~':
		return l.single(TokenPeriodic)
	case ch == '=':
		return l.single(TokenAutomated)
	case isLetter(ch):
		return l.scanDirectiveOrText()
	}

	return l.scanInLine()
}

func (l *Lexer) scanHeader() Token {
	l.skipSpaces()
	if l.pos >= len(l.input) {
		return l.makeToken(TokenEOF, "")
	}

	ch := l.peek()
	switch {
	case ch == '\n':
		return l.scanNewline()
	case ch == ';':
		return l.scanComment()
	case ch == '=':
		return l.single(TokenEquals)
	case ch == '|':
		return l.single(TokenPipe)
	case ch == '*' || ch == '!':
		return l.scanStatus()
	case ch == '(':
		return l.scanCode()
	case isDigit(ch) && l.looksLikeDate():
		return l.scanDate()
	}
	return l.scanText()
}

func (l *Lexer) scanPostingStart() Token {
	l.skipSpaces()
	if l.pos >= len(l.input) {
		return l.makeToken(TokenEOF, "")
	}

	switch ch := l.peek(); ch {
	case '\n':
		return l.scanNewline()
	case ';', '#':
		return l.scanComment()
	case '*', '!':
		return l.scanStatus()
	case '(':
		return l.single(TokenLParen)
	case '[':
		return l.single(TokenLBracket)
	}

	tok := l.scanAccount()
	l.mode = modeInline
	return tok
}

func (l *Lexer) scanInLine() Token {
	l.skipSpaces()
	if l.pos >= len(l.input) {
		return l.makeToken(TokenEOF, "")
	}

	ch := l.peek()
	switch {
	case ch == '\n':
		return l.scanNewline()
	case ch == ';':
		return l.scanComment()
	case ch == '(':
		return l.single(TokenLParen)
	case ch == ')':
		return l.single(TokenRParen)
	case ch == '[':
		return l.single(TokenLBracket)
	case ch == ']':
		return l.single(TokenRBracket)
	case ch == '{':
		return l.scanLot()
	case ch == '@':
		return l.scanPair('@', TokenAt, TokenAtAt)
	case ch == '=':
		return l.scanPair('=', TokenEquals, TokenDoubleEquals)
	case ch == '"':
		return l.scanQuotedCommodity()
	case ch == '-' || ch == '+':
		if next := l.peekAt(1); isDigit(next) || next == '.' {
			return l.scanNumber()
		}
		if ch == '-' {
			return l.single(TokenMinus)
		}
		l.advance()
		return l.Next()
	case isDigit(ch):
		if l.looksLikeDate() {
			return l.scanDate()
		}
		return l.scanNumber()
	case ch == '.' && isDigit(l.peekAt(1)):
		return l.scanNumber()
	}
	return l.scanCommodity()
}

func (l *Lexer) scanDate() Token {
	start := l.pos
	startPos := l.position()

	for l.pos < len(l.input) {
		ch := l.peek()
		if !isDigit(ch) && ch != '-' && ch != '/' && ch != '.' {
			break
		}
		l.advance()
	}

	return Token{Type: TokenDate, Value: l.input[start:l.pos], Pos: startPos, End: l.position()}
}

func (l *Lexer) scanStatus() Token {
	startPos := l.position()
	ch := l.peek()
	l.advance()
	return Token{Type: TokenStatus, Value: string(ch), Pos: startPos, End: l.position()}
}

func (l *Lexer) scanCode() Token {
	startPos := l.position()
	l.advance()

	start := l.pos
	for l.pos < len(l.input) && l.peek() != ')' && l.peek() != '\n' {
		l.advance()
	}
	value := l.input[start:l.pos]

	if l.peek() == ')' {
		l.advance()
	}

	return Token{Type: TokenCode, Value: value, Pos: startPos, End: l.position()}
}

func (l *Lexer) scanComment() Token {
	startPos := l.position()
	l.advance()

	start := l.pos
	for l.pos < len(l.input) && l.peek() != '\n' {
		l.advance()
	}

	value := strings.TrimSpace(l.input[start:l.pos])
	return Token{Type: TokenComment, Value: value, Pos: startPos, End: l.position()}
}

func (l *Lexer) scanIndent() Token {
	start := l.pos
	startPos := l.position()

	for l.pos < len(l.input) && (l.peek() == ' ' || l.peek() == '\t') {
		l.advance()
	}

	return Token{Type: TokenIndent, Value: l.input[start:l.pos], Pos: startPos, End: l.position()}
}

func (l *Lexer) scanNewline() Token {
	startPos := l.position()
	l.advance()
	l.line++
	l.column = 1
	l.atStart = true
	l.mode = modeInline
	return Token{Type: TokenNewline, Value: "\n", Pos: startPos, End: l.position()}
}

// scanAccount reads an account name. Names may contain single spaces; two
// spaces, a tab, a comment or a closing virtual bracket end the name.
func (l *Lexer) scanAccount() Token {
	start := l.pos
	startPos := l.position()
	end := start

	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == '\n' || ch == '\r' || ch == '\t' || ch == ';' || ch == ')' || ch == ']' {
			break
		}
		if ch == ' ' {
			if l.peekAt(1) == ' ' || l.peekAt(1) == '\t' {
				break
			}
			l.advance()
			continue
		}
		l.advance()
		end = l.pos
	}

	return Token{Type: TokenAccount, Value: l.input[start:end], Pos: startPos, End: l.position()}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos
	startPos := l.position()

	if l.peek() == '-' || l.peek() == '+' {
		l.advance()
	}

	for l.pos < len(l.input) && (isDigit(l.peek()) || l.peek() == '.' || l.peek() == ',') {
		l.advance()
	}

	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: startPos, End: l.position()}
}

// scanCommodity reads an unquoted commodity symbol such as BRL, $ or R$.
func (l *Lexer) scanCommodity() Token {
	start := l.pos
	startPos := l.position()

	for l.pos < len(l.input) && !isCommodityDelimiter(l.peek()) {
		l.advance()
	}
	if l.pos == start {
		l.advance()
	}

	return Token{Type: TokenCommodity, Value: l.input[start:l.pos], Pos: startPos, End: l.position()}
}

func (l *Lexer) scanQuotedCommodity() Token {
	startPos := l.position()
	l.advance()

	start := l.pos
	for l.pos < len(l.input) && l.peek() != '"' && l.peek() != '\n' {
		l.advance()
	}
	value := l.input[start:l.pos]

	if l.peek() == '"' {
		l.advance()
	}

	return Token{Type: TokenCommodity, Value: value, Pos: startPos, End: l.position()}
}

func (l *Lexer) scanLot() Token {
	startPos := l.position()
	l.advance()

	start := l.pos
	for l.pos < len(l.input) && l.peek() != '}' && l.peek() != '\n' {
		l.advance()
	}
	value := l.input[start:l.pos]

	if l.peek() == '}' {
		l.advance()
	}

	return Token{Type: TokenLot, Value: value, Pos: startPos, End: l.position()}
}

func (l *Lexer) scanPair(ch byte, single, double TokenType) Token {
	startPos := l.position()
	l.advance()

	if l.peek() == ch {
		l.advance()
		return Token{Type: double, Value: string([]byte{ch, ch}), Pos: startPos, End: l.position()}
	}

	return Token{Type: single, Value: string(ch), Pos: startPos, End: l.position()}
}

func (l *Lexer) scanDirectiveOrText() Token {
	start := l.pos
	startPos := l.position()

	for l.pos < len(l.input) && (isLetter(l.peek()) || isDigit(l.peek()) || l.peek() == '-') {
		l.advance()
	}

	word := l.input[start:l.pos]
	if isDirective(word) {
		if word == "account" {
			l.mode = modeAccount
		}
		return Token{Type: TokenDirective, Value: word, Pos: startPos, End: l.position()}
	}

	l.pos = start
	l.column = startPos.Column
	return l.scanText()
}

func (l *Lexer) scanText() Token {
	start := l.pos
	startPos := l.position()

	for l.pos < len(l.input) {
		ch := l.peek()
		if ch == '\n' || ch == ';' || ch == '|' {
			break
		}
		l.advance()
	}

	value := strings.TrimSpace(l.input[start:l.pos])
	return Token{Type: TokenText, Value: value, Pos: startPos, End: l.position()}
}

func (l *Lexer) single(typ TokenType) Token {
	startPos := l.position()
	value := string(l.peek())
	l.advance()
	return Token{Type: typ, Value: value, Pos: startPos, End: l.position()}
}

func (l *Lexer) peek() byte {
	return l.peekAt(0)
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		_, size := utf8.DecodeRuneInString(l.input[l.pos:])
		l.pos += size
		l.column++
	}
}

func (l *Lexer) skipSpaces() {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t' || l.input[l.pos] == '\r') {
		l.advance()
	}
}

func (l *Lexer) position() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.pos}
}

func (l *Lexer) makeToken(typ TokenType, value string) Token {
	pos := l.position()
	return Token{Type: typ, Value: value, Pos: pos, End: pos}
}

// looksLikeDate reports whether the input at the cursor has the shape
// YYYY<sep>M[M]<sep>D[D] with the same separator twice.
func (l *Lexer) looksLikeDate() bool {
	rest := l.input[l.pos:]
	if len(rest) < 8 {
		return false
	}
	for i := 0; i < 4; i++ {
		if !isDigit(rest[i]) {
			return false
		}
	}
	sep := rest[4]
	if sep != '-' && sep != '/' && sep != '.' {
		return false
	}

	i := 5
	for part := 0; part < 2; part++ {
		n := 0
		for i < len(rest) && isDigit(rest[i]) && n < 2 {
			i++
			n++
		}
		if n == 0 {
			return false
		}
		if part == 0 {
			if i >= len(rest) || rest[i] != sep {
				return false
			}
			i++
		}
	}
	return i == len(rest) || !isDigit(rest[i]) && rest[i] != sep
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isCommodityDelimiter(ch byte) bool {
	if isDigit(ch) {
		return true
	}
	switch ch {
	case ' ', '\t', '\r', '\n', '-', '+', '.', ',', ';', '@', '=', '"', '(', ')', '[', ']', '{', '}':
		return true
	}
	return false
}

var directives = map[string]bool{
	"account": true, "alias": true, "apply": true, "assert": true,
	"bucket": true, "capture": true, "check": true, "comment": true,
	"commodity": true, "D": true, "decimal-mark": true, "def": true,
	"define": true, "end": true, "eval": true, "expr": true,
	"include": true, "payee": true, "P": true, "tag": true,
	"test": true, "Y": true, "year": true,
}

func isDirective(word string) bool {
	return directives[word]
}
