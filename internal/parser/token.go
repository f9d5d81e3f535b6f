package parser

type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNewline
	TokenIndent
	TokenDate
	TokenStatus
	TokenCode
	TokenText
	TokenAccount
	TokenNumber
	TokenMinus
	TokenCommodity
	TokenComment
	TokenDirective
	TokenAt
	TokenAtAt
	TokenEquals
	TokenDoubleEquals
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenPipe
	TokenLot
	TokenPeriodic
	TokenAutomated
)

type Position struct {
	Line   int
	Column int
	Offset int
}

type Token struct {
	Type  TokenType
	Value string
	Pos   Position
	End   Position
}

var tokenNames = [...]string{
	"EOF", "Newline", "Indent", "Date", "Status", "Code",
	"Text", "Account", "Number", "Minus", "Commodity", "Comment",
	"Directive", "At", "AtAt", "Equals", "DoubleEquals",
	"LParen", "RParen", "LBracket", "RBracket", "Pipe", "Lot",
	"Periodic", "Automated",
}

func (t TokenType) String() string {
	if int(t) >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "Unknown"
}
