package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	cases := []struct {
		email string
		ok    bool
	}{
		{"alice@x.com", true},
		{"a1_b.c-d@host-1.co.uk", true},
		{"alice@x.org.cn", true},
		{"", false},
		{"_alice@x.com", false},     // local part must start alnum
		{"Alice@x.com", false},      // callers lowercase first
		{"alice@x", false},          // no dot segment
		{"alice@x.c0m", false},      // dot segments are letters only
		{"alice@x.a.b.c.com", false}, // too many segments
		{"a@x.com", false},          // local part needs 2+ chars
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, validEmail(c.email), c.email)
	}
}

func TestValidPassword(t *testing.T) {
	cases := []struct {
		pw string
		ok bool
	}{
		{"Passw0rd", true},
		{"t12345", true},
		{"abc,12", true},
		{"short", false},             // < 6
		{"123456", false},            // all digits
		{"abcdef", false},            // all lowercase
		{"ABCDEF", false},            // all uppercase
		{"with space1", false},       // space not in charset
		{"abc+12", false},            // + not in charset; punctuation set is closed
		{"aaaaaaaaaaaaaaaaaa9", false}, // 19 chars
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, validPassword(c.pw), c.pw)
	}
}

func TestValidName(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"测试", true},
		{"张三丰真人", true},
		{"Alice", true},
		{"Jean-Luc Picard", true},
		{"Tom", true},
		{"测", false},         // single ideograph
		{"测试测试测试", false},    // six ideographs
		{"Al", false},        // latin needs 3+
		{"1Alice", false},    // must start with a letter
		{"-Alice", false},    // must start with a letter
		{"", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, validName(c.name), c.name)
	}
}
