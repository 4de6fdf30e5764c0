package oracle

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sadopc/oraterm/internal/errs"
)

var (
	identifierRE = regexp.MustCompile(`^[A-Z][A-Z0-9_$#]*$`)
	objectTypeRE = regexp.MustCompile(`^[A-Z ]+$`)
)

// NormalizeIdentifier trims and uppercases s and checks that the result is a
// plain unquoted identifier. Only normalized identifiers are ever placed in
// statement text.
func NormalizeIdentifier(s string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if !identifierRE.MatchString(v) {
		return "", errs.Newf(errs.KindInvalidIdentifier, "", "invalid identifier %q", s)
	}
	return v, nil
}

// NormalizeObjectType trims and uppercases an object type name and checks
// that it contains only letters and spaces.
func NormalizeObjectType(s string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if !objectTypeRE.MatchString(v) {
		return "", errs.Newf(errs.KindInvalidIdentifier, "", "invalid object type %q", s)
	}
	return v, nil
}

// ParseLimit converts user input to a positive row limit.
func ParseLimit(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errs.Newf(errs.KindInvalidArgument, "", "row limit %q is not a number", s)
	}
	return n, checkLimit(n)
}

func checkLimit(n int) error {
	if n <= 0 {
		return errs.Newf(errs.KindInvalidArgument, "", "row limit must be a positive integer, got %d", n)
	}
	return nil
}

// QualifiedName returns "OWNER"."NAME" for two normalized identifiers.
func QualifiedName(owner, name string) string {
	return `"` + owner + `"."` + name + `"`
}

// normalizePair validates a schema and an object name together and wraps
// the failure with the operation name.
func normalizePair(op, owner, name string) (string, string, error) {
	o, err := NormalizeIdentifier(owner)
	if err != nil {
		return "", "", withOp(op, err)
	}
	n, err := NormalizeIdentifier(name)
	if err != nil {
		return "", "", withOp(op, err)
	}
	return o, n, nil
}

func withOp(op string, err error) error {
	if e, ok := err.(*errs.Error); ok && e.Op == "" {
		e.Op = op
	}
	return err
}
