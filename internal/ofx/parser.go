// Package ofx reads OFX/QFX bank and credit-card statements into ledger transactions.
package ofx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/ledger/internal/model"
)

// ErrNoStatements is returned when a file parses but holds no bank or card statement.
var ErrNoStatements = errors.New("no bank or credit card statements found")

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Statement is the ledger view of one OFX file.
type Statement struct {
	Accounts     []string
	Transactions []model.NewTransaction
	Skipped      int
}

// Parser implements OFX/QFX file parsing.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{logger: slog.Default()}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Some SGML exports drop the closing bracket of a bare tag line.
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

// ParseFile parses an OFX/QFX file and returns the transactions to import.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.NewTransaction, error) {
	stmt, err := p.Parse(ctx, reader)
	if err != nil {
		return nil, err
	}
	return stmt.Transactions, nil
}

// Parse parses an OFX/QFX file and reports accounts alongside transactions.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) (*Statement, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	out := &Statement{}
	accounts := make(map[string]struct{})
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bankStmts++
		accountID := string(stmt.BankAcctFrom.AcctID)
		accounts[accountID] = struct{}{}
		p.collect(out, stmt.BankTranList, accountID)
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ccStmts++
		accountID := string(stmt.CCAcctFrom.AcctID)
		accounts[accountID] = struct{}{}
		p.collect(out, stmt.BankTranList, accountID)
	}

	if bankStmts+ccStmts == 0 {
		return nil, ErrNoStatements
	}

	for acct := range accounts {
		if acct != "" {
			out.Accounts = append(out.Accounts, acct)
		}
	}
	sort.Strings(out.Accounts)

	p.logger.Info("parsed OFX file",
		"transactions", len(out.Transactions),
		"skipped", out.Skipped,
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return out, nil
}

func (p *Parser) collect(out *Statement, list *ofxgo.TransactionList, accountID string) {
	if list == nil {
		return
	}
	for _, ofxTx := range list.Transactions {
		txn, ok := p.convertTransaction(ofxTx, accountID)
		if !ok {
			out.Skipped++
			continue
		}
		out.Transactions = append(out.Transactions, txn)
	}
}

// convertTransaction maps an OFX transaction onto a NewTransaction.
// Zero amounts have no ledger meaning and are reported as not ok.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID string) (model.NewTransaction, bool) {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(2))
	if err != nil || amount.IsZero() {
		p.logger.Debug("skipping OFX transaction", "fitid", ofxTx.FiTID, "amount", ofxTx.TrnAmt.String())
		return model.NewTransaction{}, false
	}

	typ := model.TypeIncome
	switch {
	case ofxTx.TrnType == ofxgo.TrnTypeXfer:
		typ = model.TypeTransfer
	case amount.IsNegative():
		typ = model.TypeExpense
	}

	return model.NewTransaction{
		Date:        model.Day(ofxTx.DtPosted.Time),
		Amount:      amount.Abs(),
		Description: p.extractDescription(ofxTx),
		ExternalID:  ExternalID(accountID, string(ofxTx.FiTID)),
		Type:        typ,
	}, true
}

// ExternalID builds the import dedupe key for a statement line.
func ExternalID(accountID, fitID string) string {
	return accountID + ":" + fitID
}

// extractDescription tries to get a clean merchant name from OFX data.
func (p *Parser) extractDescription(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && (name == "" || isGenericDescription(name)) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading MM/DD.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
