package diag

import (
	"regexp"
	"strings"
)

// Code is a known checker error code.
type Code uint8

const (
	CodeNone Code = iota // the line carried no [code]
	CodeUnrecognized
	CodeNoUntypedDef
	CodeUnionAttr
	CodeVarAnnotated
	CodeTypeArg
	CodeIndex
	CodeAttrDefined
	CodeAssignment
	CodeArgType
	CodeReturnValue
	CodeNameDefined
	CodeCallArg
	CodeOperator
	CodeReturn
	CodeMisc
)

var codeNames = map[Code]string{
	CodeNone:         "",
	CodeUnrecognized: "unrecognized",
	CodeNoUntypedDef: "no-untyped-def",
	CodeUnionAttr:    "union-attr",
	CodeVarAnnotated: "var-annotated",
	CodeTypeArg:      "type-arg",
	CodeIndex:        "index",
	CodeAttrDefined:  "attr-defined",
	CodeAssignment:   "assignment",
	CodeArgType:      "arg-type",
	CodeReturnValue:  "return-value",
	CodeNameDefined:  "name-defined",
	CodeCallArg:      "call-arg",
	CodeOperator:     "operator",
	CodeReturn:       "return",
	CodeMisc:         "misc",
}

var codeByName = func() map[string]Code {
	out := make(map[string]Code, len(codeNames))
	for c, name := range codeNames {
		if c != CodeNone && c != CodeUnrecognized {
			out[name] = c
		}
	}
	return out
}()

func (c Code) String() string {
	return codeNames[c]
}

// ParseCode maps a bracketed code; unknown codes are CodeUnrecognized.
func ParseCode(raw string) Code {
	if raw == "" {
		return CodeNone
	}
	if c, ok := codeByName[raw]; ok {
		return c
	}
	return CodeUnrecognized
}

// Class is what kind of fix a diagnostic calls for.
type Class uint8

const (
	ClassOther Class = iota
	ClassMissingParam
	ClassMissingReturn
	ClassMissingSignature
	ClassOptionalAccess
	ClassUntypedContainer
	ClassUnresolvedGeneric
)

func (c Class) String() string {
	switch c {
	case ClassMissingParam:
		return "missing-param"
	case ClassMissingReturn:
		return "missing-return"
	case ClassMissingSignature:
		return "missing-signature"
	case ClassOptionalAccess:
		return "optional-access"
	case ClassUntypedContainer:
		return "untyped-container"
	case ClassUnresolvedGeneric:
		return "unresolved-generic"
	default:
		return "other"
	}
}

// Fixable reports whether the synthesizer has an edit for the class.
func (c Class) Fixable() bool {
	return c != ClassOther
}

// Classify derives the fix class from code and message.
func Classify(code Code, message string) Class {
	switch {
	case strings.Contains(message, `Item "None" of`):
		return ClassOptionalAccess
	case code == CodeIndex && strings.Contains(message, `"Optional[`) && strings.Contains(message, "is not indexable"):
		return ClassOptionalAccess
	}
	switch code {
	case CodeNoUntypedDef:
		switch {
		case strings.Contains(message, "missing a return type annotation"):
			return ClassMissingReturn
		case strings.Contains(message, "for one or more arguments"):
			return ClassMissingParam
		case strings.Contains(message, "missing a type annotation"):
			return ClassMissingSignature
		}
	case CodeVarAnnotated:
		if strings.HasPrefix(message, "Need type annotation") {
			return ClassUntypedContainer
		}
	case CodeTypeArg:
		if strings.HasPrefix(message, "Missing type parameters for generic type") {
			return ClassUnresolvedGeneric
		}
	}
	return ClassOther
}

var quotedRe = regexp.MustCompile(`"([^"]*)"`)

// Quoted returns the double-quoted fragments of a message in order.
func Quoted(message string) []string {
	matches := quotedRe.FindAllStringSubmatch(message, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
