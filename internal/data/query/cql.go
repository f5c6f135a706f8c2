package query

import (
	"fmt"
	"regexp"
	"strings"

	"juparc/internal/core/errors"
)

var (
	cqlSelectRE       = regexp.MustCompile(`(?is)^\s*SELECT\s+notebooks(?:\s+WHERE\s+(.+))?\s*$`)
	cqlAndSplitRE     = regexp.MustCompile(`(?i)\s+AND\s+`)
	cqlNullCondRE     = regexp.MustCompile(`(?i)^\s*([a-z0-9_]+)\s+IS\s+(NOT\s+)?NULL\s*$`)
	cqlCompareCondRE  = regexp.MustCompile(`(?i)^\s*([a-z0-9_]+)\s*(>=|<=|!=|==|=|>|<)\s*(.+?)\s*$`)
	cqlContainsCondRE = regexp.MustCompile(`(?i)^\s*([a-z0-9_]+)\s+CONTAINS\s+['"]([^'"]*)['"]\s*$`)
	cqlMatchesCondRE  = regexp.MustCompile(`(?i)^\s*([a-z0-9_]+)\s+MATCHES\s+['"](.*)['"]\s*$`)
)

// ParseWhere parses "SELECT notebooks [WHERE cond AND ...]", or a bare
// condition list, into conditions. Operands may be quoted and are coerced
// like attribute conditions.
func ParseWhere(raw string) ([]Condition, error) {
	where := strings.TrimSpace(raw)
	if where == "" {
		return nil, nil
	}
	if strings.HasPrefix(strings.ToUpper(where), "SELECT") {
		matches := cqlSelectRE.FindStringSubmatch(where)
		if len(matches) == 0 {
			return nil, errors.New(errors.CodeValidationError, "invalid query: expected SELECT notebooks [WHERE ...]")
		}
		where = strings.TrimSpace(matches[1])
		if where == "" {
			return nil, nil
		}
	}

	parts := cqlAndSplitRE.Split(where, -1)
	conds := make([]Condition, 0, len(parts))
	for _, part := range parts {
		c, err := parseCQLCondition(part)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

func parseCQLCondition(raw string) (Condition, error) {
	if match := cqlNullCondRE.FindStringSubmatch(raw); len(match) == 3 {
		c := Condition{Field: fieldName(match[1]), Op: OpNull}
		if match[2] != "" {
			return ParseAttr(c.Field, ".*")
		}
		return c, nil
	}
	if match := cqlContainsCondRE.FindStringSubmatch(raw); len(match) == 3 {
		return Condition{Field: fieldName(match[1]), Op: OpContains, Operand: Coerce(match[2])}, nil
	}
	if match := cqlMatchesCondRE.FindStringSubmatch(raw); len(match) == 3 {
		return ParseAttr(fieldName(match[1]), match[2])
	}
	if match := cqlCompareCondRE.FindStringSubmatch(raw); len(match) == 4 {
		op := match[2]
		if op == "=" {
			op = OpEQ
		}
		c := Condition{Field: fieldName(match[1]), Op: op}
		operand := match[3]
		if unquoted, ok := unquote(operand); ok {
			operand = unquoted
		}
		c.Operand = Coerce(operand)
		return c, nil
	}
	return Condition{}, errors.New(errors.CodeValidationError, fmt.Sprintf("invalid condition %q", strings.TrimSpace(raw)))
}

func fieldName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return "", false
}
