// Package subject implements subject validation, wildcard matching, and
// inbox generation (component A).
package subject

import (
	"strings"

	nerrors "github.com/cpop/natscore/pkg/errors"
)

// MaxLength is the maximum byte length of a subject.
const MaxLength = 256

// ValidatePublish checks subject against the publish rules: non-empty,
// no whitespace, no leading/trailing/empty token, length <= 256, and no
// wildcard tokens.
func ValidatePublish(subj string) error {
	if err := validateShape(subj); err != nil {
		return err
	}
	for _, tok := range strings.Split(subj, ".") {
		if tok == "*" || tok == ">" {
			return nerrors.New(nerrors.KindInvalidSubject, "publish subject must not contain wildcards: "+subj, nil)
		}
	}
	return nil
}

// ValidateSubscribe checks subject against the subscribe rules: the same
// shape rules as publish, plus "*" and ">" are allowed only as complete
// tokens, and ">" may only be the last token.
func ValidateSubscribe(subj string) error {
	if err := validateShape(subj); err != nil {
		return err
	}
	toks := strings.Split(subj, ".")
	for i, tok := range toks {
		if strings.Contains(tok, "*") && tok != "*" {
			return nerrors.New(nerrors.KindInvalidSubject, "'*' must be a complete token: "+subj, nil)
		}
		if strings.Contains(tok, ">") {
			if tok != ">" {
				return nerrors.New(nerrors.KindInvalidSubject, "'>' must be a complete token: "+subj, nil)
			}
			if i != len(toks)-1 {
				return nerrors.New(nerrors.KindInvalidSubject, "'>' must be the last token: "+subj, nil)
			}
		}
	}
	return nil
}

func validateShape(subj string) error {
	if subj == "" {
		return nerrors.New(nerrors.KindInvalidSubject, "subject must not be empty", nil)
	}
	if len(subj) > MaxLength {
		return nerrors.New(nerrors.KindInvalidSubject, "subject exceeds maximum length", nil)
	}
	if strings.ContainsAny(subj, " \t\r\n") {
		return nerrors.New(nerrors.KindInvalidSubject, "subject must not contain whitespace: "+subj, nil)
	}
	if strings.HasPrefix(subj, ".") || strings.HasSuffix(subj, ".") {
		return nerrors.New(nerrors.KindInvalidSubject, "subject must not start or end with '.': "+subj, nil)
	}
	if strings.Contains(subj, "..") {
		return nerrors.New(nerrors.KindInvalidSubject, "subject must not contain an empty token: "+subj, nil)
	}
	return nil
}

// ValidateQueueGroup checks a queue group name: non-empty and containing
// no whitespace.
func ValidateQueueGroup(queue string) error {
	if queue == "" {
		return nerrors.New(nerrors.KindInvalidQueueGroup, "queue group must not be empty", nil)
	}
	if strings.ContainsAny(queue, " \t\r\n") {
		return nerrors.New(nerrors.KindInvalidQueueGroup, "queue group must not contain whitespace: "+queue, nil)
	}
	return nil
}

// Matches reports whether subject (a concrete, wildcard-free subject as
// carried on a delivered message) matches pattern (a subscribe subject
// that may use "*" and ">").
func Matches(pattern, subj string) bool {
	pToks := strings.Split(pattern, ".")
	sToks := strings.Split(subj, ".")

	for i, pt := range pToks {
		if pt == ">" {
			return i < len(sToks)
		}
		if i >= len(sToks) {
			return false
		}
		if pt == "*" {
			continue
		}
		if pt != sToks[i] {
			return false
		}
	}
	return len(pToks) == len(sToks)
}
