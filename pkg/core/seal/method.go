package seal

import "fmt"

// Method identifies how a witness transaction commits to the state it carries.
type Method uint8

const (
	// MethodOpret commits through an OP_RETURN output of the witness transaction.
	MethodOpret Method = 1
	// MethodTapret commits through a taproot script tree leaf.
	MethodTapret Method = 2
)

func (m Method) String() string {
	switch m {
	case MethodOpret:
		return "opret"
	case MethodTapret:
		return "tapret"
	default:
		return fmt.Sprintf("method(%d)", uint8(m))
	}
}

// Valid reports whether m is one of the known closing methods.
func (m Method) Valid() bool {
	return m == MethodOpret || m == MethodTapret
}

// ParseMethod parses the textual name of a closing method.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "opret":
		return MethodOpret, nil
	case "tapret":
		return MethodTapret, nil
	default:
		return 0, fmt.Errorf("%w: unknown method %q", ErrMalformedSeal, s)
	}
}
