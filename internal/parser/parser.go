package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/juev/ledger-api/internal/ast"
	"github.com/juev/ledger-api/internal/formatter"
)

type ParseError struct {
	Message string
	Pos     Position
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

type Parser struct {
	lexer       *Lexer
	current     Token
	errors      []ParseError
	defaultYear int
	decimalMark rune
	marks       map[string]rune
}

func Parse(input string) (*ast.Journal, []ParseError) {
	p := &Parser{
		lexer: NewLexer(input),
		marks: make(map[string]rune),
	}
	p.advance()
	return p.parseJournal(), p.errors
}

func (p *Parser) parseJournal() *ast.Journal {
	journal := &ast.Journal{}

	for p.current.Type != TokenEOF {
		switch p.current.Type {
		case TokenNewline, TokenComment:
			p.advance()
		case TokenIndent:
			// stray indented line outside a transaction
			p.restOfLine()
		case TokenDate:
			tx := p.parseTransaction()
			if tx != nil {
				journal.Transactions = append(journal.Transactions, *tx)
			}
		case TokenPeriodic, TokenAutomated:
			p.skipBlock()
		case TokenDirective:
			dir := p.parseDirective()
			if dir == nil {
				continue
			}
			if inc, ok := dir.(ast.Include); ok {
				journal.Includes = append(journal.Includes, inc)
			} else {
				journal.Directives = append(journal.Directives, dir)
			}
		default:
			p.error("unexpected token: %s", p.current.Type)
			p.skipToNextLine()
		}
	}

	return journal
}

func (p *Parser) parseTransaction() *ast.Transaction {
	tx := &ast.Transaction{}
	tx.Range.Start = toASTPosition(p.current.Pos)

	date := p.parseDate()
	if date == nil {
		p.skipToNextLine()
		return nil
	}
	tx.Date = *date

	if p.current.Type == TokenEquals {
		p.advance()
		if date2 := p.parseDate(); date2 != nil {
			tx.Date2 = date2
		}
	}

	if p.current.Type == TokenStatus {
		tx.Status = p.parseStatus()
	}

	if p.current.Type == TokenCode {
		tx.Code = strings.TrimSpace(p.current.Value)
		p.advance()
	}

	if p.current.Type == TokenText {
		desc := p.current.Value
		p.advance()

		if p.current.Type == TokenPipe {
			tx.Payee = strings.TrimSpace(desc)
			p.advance()
			var note strings.Builder
			for p.current.Type == TokenText || p.current.Type == TokenPipe {
				note.WriteString(p.current.Value)
				p.advance()
			}
			tx.Note = strings.TrimSpace(note.String())
			tx.Description = tx.Payee
			if tx.Note != "" {
				tx.Description = tx.Payee + " | " + tx.Note
			}
		} else {
			tx.Description = desc
		}
	}

	if p.current.Type == TokenComment {
		p.advance()
	}

	if p.current.Type != TokenNewline && p.current.Type != TokenEOF {
		p.error("unexpected %s in transaction header", p.current.Type)
		p.skipToNextLine()
	} else if p.current.Type == TokenNewline {
		p.advance()
	}

	for p.current.Type == TokenIndent {
		posting := p.parsePosting()
		if posting != nil {
			tx.Postings = append(tx.Postings, *posting)
		}
		if p.current.Type == TokenNewline {
			p.advance()
		}
	}

	tx.Range.End = toASTPosition(p.current.Pos)
	return tx
}

func (p *Parser) parseDate() *ast.Date {
	if p.current.Type != TokenDate {
		p.error("expected date")
		return nil
	}

	value := p.current.Value
	pos := p.current.Pos
	p.advance()

	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == '-' || r == '/' || r == '.'
	})

	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			p.errorAt(pos, "invalid date: %s", value)
			return nil
		}
		nums[i] = n
	}

	date := &ast.Date{Range: ast.Range{Start: toASTPosition(pos), End: toASTPosition(p.current.Pos)}}
	switch len(nums) {
	case 2:
		if p.defaultYear == 0 {
			p.errorAt(pos, "partial date requires Y directive: %s", value)
			return nil
		}
		date.Year, date.Month, date.Day = p.defaultYear, nums[0], nums[1]
	case 3:
		date.Year, date.Month, date.Day = nums[0], nums[1], nums[2]
	default:
		p.errorAt(pos, "invalid date format: %s", value)
		return nil
	}

	if _, ok := date.Time(); !ok {
		p.errorAt(pos, "invalid calendar date: %s", value)
		return nil
	}
	return date
}

func (p *Parser) parseStatus() ast.Status {
	status := ast.StatusNone
	if p.current.Type == TokenStatus {
		switch p.current.Value {
		case "*":
			status = ast.StatusCleared
		case "!":
			status = ast.StatusPending
		}
		p.advance()
	}
	return status
}

func (p *Parser) parsePosting() *ast.Posting {
	p.advance()

	switch p.current.Type {
	case TokenComment:
		p.advance()
		return nil
	case TokenNewline, TokenEOF:
		return nil
	}

	posting := &ast.Posting{}
	posting.Range.Start = toASTPosition(p.current.Pos)

	if p.current.Type == TokenStatus {
		posting.Status = p.parseStatus()
	}

	var closing TokenType
	switch p.current.Type {
	case TokenLBracket:
		posting.Virtual = ast.VirtualBalanced
		closing = TokenRBracket
		p.advance()
	case TokenLParen:
		posting.Virtual = ast.VirtualUnbalanced
		closing = TokenRParen
		p.advance()
	}

	if p.current.Type != TokenAccount || p.current.Value == "" {
		p.error("expected account name")
		p.skipToLineEnd()
		return nil
	}

	name := strings.TrimSpace(p.current.Value)
	posting.Account = ast.Account{
		Name:  name,
		Parts: strings.Split(name, ":"),
		Range: ast.Range{Start: toASTPosition(p.current.Pos), End: toASTPosition(p.current.End)},
	}
	p.advance()

	if closing != 0 {
		if p.current.Type != closing {
			p.error("unterminated virtual account %s", name)
			p.skipToLineEnd()
			return nil
		}
		p.advance()
	}

	if p.startsAmount() {
		amount := p.parseAmount()
		if amount == nil {
			p.skipToLineEnd()
			return nil
		}
		posting.Amount = amount
	}

	if p.current.Type == TokenLot {
		p.advance()
	}

	if p.current.Type == TokenAt || p.current.Type == TokenAtAt {
		posting.Cost = p.parseCost()
		if posting.Cost == nil {
			p.skipToLineEnd()
			return nil
		}
	}

	if p.current.Type == TokenEquals || p.current.Type == TokenDoubleEquals {
		posting.BalanceAssertion = p.parseBalanceAssertion()
		if posting.BalanceAssertion == nil {
			p.skipToLineEnd()
			return nil
		}
	}

	if p.current.Type == TokenComment {
		posting.Comment = p.current.Value
		p.advance()
	}

	if p.current.Type != TokenNewline && p.current.Type != TokenEOF {
		p.error("unexpected %s %q in posting", p.current.Type, p.current.Value)
		p.skipToLineEnd()
		return nil
	}

	posting.Range.End = toASTPosition(p.current.Pos)
	return posting
}

func (p *Parser) startsAmount() bool {
	switch p.current.Type {
	case TokenCommodity, TokenNumber, TokenMinus:
		return true
	}
	return false
}

func (p *Parser) parseAmount() *ast.Amount {
	amount := &ast.Amount{}
	amount.Range.Start = toASTPosition(p.current.Pos)

	negative := false
	if p.current.Type == TokenMinus {
		negative = true
		p.advance()
	}

	if p.current.Type == TokenCommodity {
		amount.Commodity = ast.Commodity{
			Symbol:   p.current.Value,
			Position: ast.CommodityLeft,
			Range:    ast.Range{Start: toASTPosition(p.current.Pos), End: toASTPosition(p.current.End)},
		}
		p.advance()
		if p.current.Type == TokenMinus {
			negative = !negative
			p.advance()
		}
	}

	if p.current.Type != TokenNumber {
		p.error("expected number")
		return nil
	}
	raw := p.current.Value
	rawPos := p.current.Pos
	p.advance()

	if p.current.Type == TokenCommodity && amount.Commodity.Symbol == "" {
		amount.Commodity = ast.Commodity{
			Symbol:   p.current.Value,
			Position: ast.CommodityRight,
			Range:    ast.Range{Start: toASTPosition(p.current.Pos), End: toASTPosition(p.current.End)},
		}
		p.advance()
	}

	qty, err := p.parseQuantity(raw, amount.Commodity.Symbol)
	if err != nil {
		p.errorAt(rawPos, "invalid number: %s", raw)
		return nil
	}
	if negative {
		qty = qty.Neg()
	}
	amount.Quantity = qty

	amount.Range.End = toASTPosition(p.current.Pos)
	return amount
}

// parseQuantity turns a raw number with optional digit-group separators into
// a decimal. The decimal mark comes from the commodity's declared format, then
// the decimal-mark directive, and is otherwise guessed from the number itself.
func (p *Parser) parseQuantity(raw, commodity string) (decimal.Decimal, error) {
	mark, ok := p.marks[commodity]
	if !ok {
		mark = p.decimalMark
	}
	if mark == 0 {
		mark = guessDecimalMark(raw)
	}

	sep := ","
	if mark == ',' {
		sep = "."
	}
	normalized := strings.ReplaceAll(raw, sep, "")
	if mark == ',' {
		normalized = strings.Replace(normalized, ",", ".", 1)
	}
	normalized = strings.TrimPrefix(normalized, "+")
	if strings.Count(normalized, ".") > 1 || strings.Contains(normalized, ",") {
		return decimal.Decimal{}, fmt.Errorf("ambiguous number %q", raw)
	}
	return decimal.NewFromString(normalized)
}

func guessDecimalMark(raw string) rune {
	lastDot := strings.LastIndex(raw, ".")
	lastComma := strings.LastIndex(raw, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			return ','
		}
		return '.'
	case lastComma >= 0:
		// a lone comma followed by exactly three digits groups thousands
		if strings.Count(raw, ",") == 1 && len(raw)-lastComma-1 != 3 {
			return ','
		}
		return '.'
	case lastDot >= 0 && strings.Count(raw, ".") > 1:
		return ','
	}
	return '.'
}

func (p *Parser) parseCost() *ast.Cost {
	cost := &ast.Cost{}
	cost.Range.Start = toASTPosition(p.current.Pos)

	if p.current.Type == TokenAtAt {
		cost.IsTotal = true
	}
	p.advance()

	amount := p.parseAmount()
	if amount == nil {
		return nil
	}
	cost.Amount = *amount
	cost.Range.End = toASTPosition(p.current.Pos)
	return cost
}

func (p *Parser) parseBalanceAssertion() *ast.BalanceAssertion {
	ba := &ast.BalanceAssertion{}
	ba.Range.Start = toASTPosition(p.current.Pos)

	if p.current.Type == TokenDoubleEquals {
		ba.IsStrict = true
	}
	p.advance()

	amount := p.parseAmount()
	if amount == nil {
		return nil
	}
	ba.Amount = *amount
	ba.Range.End = toASTPosition(p.current.Pos)
	return ba
}

func (p *Parser) parseDirective() ast.Directive {
	directive := p.current.Value
	pos := p.current.Pos

	switch directive {
	case "account":
		p.advance()
		return p.parseAccountDirective(pos)
	case "commodity":
		return p.parseCommodityDirective(pos)
	case "include":
		return p.parseIncludeDirective(pos)
	case "P":
		p.advance()
		return p.parsePriceDirective(pos)
	case "Y", "year":
		p.advance()
		return p.parseYearDirective(pos)
	case "decimal-mark":
		return p.parseDecimalMarkDirective(pos)
	case "comment":
		p.skipCommentBlock()
		return nil
	default:
		p.restOfLine()
		p.skipSubdirectives()
		return nil
	}
}

func (p *Parser) parseAccountDirective(startPos Position) ast.Directive {
	if p.current.Type != TokenAccount || p.current.Value == "" {
		p.error("expected account name")
		p.skipToNextLine()
		return nil
	}

	name := strings.TrimSpace(p.current.Value)
	dir := ast.AccountDirective{
		Account: ast.Account{
			Name:  name,
			Parts: strings.Split(name, ":"),
			Range: ast.Range{Start: toASTPosition(p.current.Pos), End: toASTPosition(p.current.End)},
		},
		Range: ast.Range{Start: toASTPosition(startPos)},
	}
	p.advance()

	if p.current.Type == TokenComment {
		dir.Comment = p.current.Value
	}
	p.skipToNextLine()
	p.skipSubdirectives()

	return dir
}

// parseCommodityDirective handles both "commodity BRL" followed by an
// indented format line and the inline "commodity BRL 1.000,00" form.
func (p *Parser) parseCommodityDirective(startPos Position) ast.Directive {
	line := p.restOfLine()

	dir := ast.CommodityDirective{
		Range: ast.Range{Start: toASTPosition(startPos), End: toASTPosition(line.End)},
	}

	arg := stripComment(line.Value)
	if arg == "" {
		p.errorAt(line.Pos, "expected commodity")
		p.skipSubdirectives()
		return nil
	}

	symbol, format := splitCommodityArg(arg)
	dir.Commodity = ast.Commodity{
		Symbol: symbol,
		Range:  ast.Range{Start: toASTPosition(line.Pos), End: toASTPosition(line.End)},
	}
	dir.Format = format

	subdirs := p.parseSubdirectives()
	if f, ok := subdirs["format"]; ok {
		if s, _ := splitCommodityArg(f); s == symbol || symbol == "" {
			dir.Format = f
		}
	}

	if dir.Format != "" {
		if nf := formatter.ParseNumberFormat(dir.Format); nf.HasDecimal {
			p.marks[symbol] = nf.DecimalMark
		}
	}

	return dir
}

func (p *Parser) parseIncludeDirective(startPos Position) ast.Directive {
	line := p.restOfLine()

	path := stripComment(line.Value)
	if path == "" {
		p.errorAt(line.Pos, "expected file path")
		return nil
	}

	return ast.Include{
		Path:  path,
		Range: ast.Range{Start: toASTPosition(startPos), End: toASTPosition(line.End)},
	}
}

func (p *Parser) parsePriceDirective(startPos Position) ast.Directive {
	dir := ast.PriceDirective{
		Range: ast.Range{Start: toASTPosition(startPos)},
	}

	date := p.parseDate()
	if date == nil {
		p.skipToNextLine()
		return nil
	}
	dir.Date = *date

	// optional time of day, "10:30:00"
	for p.current.Type == TokenNumber || p.current.Type == TokenCommodity && strings.HasPrefix(p.current.Value, ":") {
		p.advance()
	}

	if p.current.Type != TokenCommodity {
		p.error("expected commodity")
		p.skipToNextLine()
		return nil
	}
	dir.Commodity = ast.Commodity{
		Symbol: p.current.Value,
		Range:  ast.Range{Start: toASTPosition(p.current.Pos)},
	}
	p.advance()

	price := p.parseAmount()
	if price == nil {
		p.skipToNextLine()
		return nil
	}
	dir.Price = *price

	dir.Range.End = toASTPosition(p.current.Pos)
	p.skipToNextLine()
	return dir
}

func (p *Parser) parseYearDirective(startPos Position) ast.Directive {
	if p.current.Type != TokenNumber {
		p.error("expected year")
		p.skipToNextLine()
		return nil
	}

	year, err := strconv.Atoi(p.current.Value)
	if err != nil || year < 1900 || year > 2200 {
		p.error("invalid year: %s", p.current.Value)
		p.skipToNextLine()
		return nil
	}

	p.defaultYear = year
	dir := ast.YearDirective{
		Year:  year,
		Range: ast.Range{Start: toASTPosition(startPos)},
	}
	p.advance()
	p.skipToNextLine()
	return dir
}

func (p *Parser) parseDecimalMarkDirective(startPos Position) ast.Directive {
	line := p.restOfLine()

	arg := stripComment(line.Value)
	if arg != "." && arg != "," {
		p.errorAt(line.Pos, "decimal-mark must be . or , (got %q)", arg)
		return nil
	}

	mark, _ := utf8.DecodeRuneInString(arg)
	p.decimalMark = mark
	return ast.DecimalMarkDirective{
		Mark:  mark,
		Range: ast.Range{Start: toASTPosition(startPos), End: toASTPosition(line.End)},
	}
}

// parseSubdirectives reads the indented "name value" lines that may follow a
// directive. The current token must be the first token of the next line.
func (p *Parser) parseSubdirectives() map[string]string {
	subdirs := make(map[string]string)

	for p.current.Type == TokenIndent {
		line := p.restOfLine()
		text := stripComment(line.Value)
		if text == "" {
			continue
		}
		name, value, _ := strings.Cut(text, " ")
		subdirs[name] = strings.TrimSpace(value)
	}

	return subdirs
}

func (p *Parser) skipSubdirectives() {
	p.parseSubdirectives()
}

// skipBlock skips a periodic (~) or automated (=) transaction together with
// its indented postings. Neither contributes to account balances.
func (p *Parser) skipBlock() {
	p.restOfLine()
	p.skipSubdirectives()
}

// skipCommentBlock skips everything from a "comment" directive up to and
// including the matching "end comment" line.
func (p *Parser) skipCommentBlock() {
	p.restOfLine()
	for p.current.Type != TokenEOF {
		if p.current.Type == TokenNewline {
			p.advance()
			continue
		}
		isEnd := p.current.Type == TokenDirective && p.current.Value == "end"
		p.restOfLine()
		if isEnd {
			return
		}
	}
}

func splitCommodityArg(arg string) (symbol, format string) {
	fields := strings.Fields(arg)
	if len(fields) == 1 && !strings.ContainsAny(fields[0], "0123456789") {
		return strings.Trim(fields[0], `"`), ""
	}

	for _, f := range fields {
		trimmed := strings.TrimLeft(f, "-0123456789.,")
		trimmed = strings.TrimRight(trimmed, "0123456789.,")
		if trimmed != "" {
			return strings.Trim(trimmed, `"`), arg
		}
	}
	return "", arg
}

func stripComment(s string) string {
	if idx := strings.Index(s, ";"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func (p *Parser) advance() {
	p.current = p.lexer.Next()
}

// restOfLine returns the unread remainder of the current line and moves to
// the first token of the next one. It must not be called on a Newline token.
func (p *Parser) restOfLine() Token {
	line := p.lexer.RestOfLine()
	p.advance()
	if p.current.Type == TokenNewline {
		p.advance()
	}
	return line
}

func (p *Parser) skipToLineEnd() {
	for p.current.Type != TokenNewline && p.current.Type != TokenEOF {
		p.advance()
	}
}

func (p *Parser) skipToNextLine() {
	p.skipToLineEnd()
	if p.current.Type == TokenNewline {
		p.advance()
	}
}

func (p *Parser) error(format string, args ...any) {
	p.errorAt(p.current.Pos, format, args...)
}

func (p *Parser) errorAt(pos Position, format string, args ...any) {
	p.errors = append(p.errors, ParseError{
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	})
}

func toASTPosition(pos Position) ast.Position {
	return ast.Position{
		Line:   pos.Line,
		Column: pos.Column,
		Offset: pos.Offset,
	}
}
