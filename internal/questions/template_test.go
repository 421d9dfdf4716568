package questions

import "testing"

func TestTemplate(t *testing.T) {
	tests := []struct {
		keyword, subject, want string
	}{
		{"Mole", "", "What is the unit used to measure the amount of a substance called?"},
		// "mass" is earlier in the stock list than "relative atomic mass"
		{"relative atomic mass", "", "What is the quantity of matter in an object called?"},
		{"hydrogen ion", "", "What ion is produced by acids in aqueous solution?"},
		{"word equation", "Physics", "What is word equation in physics?"},
		{"chemical formula", "", "What is chemical formula in chemistry?"},
		{"combustion reaction", "", "What is the combustion reaction process called?"},
		{"osmosis", "Biology", "What is osmosis?"},
	}
	for _, tt := range tests {
		if got := Template(tt.keyword, tt.subject); got != tt.want {
			t.Errorf("Template(%q) = %q, want %q", tt.keyword, got, tt.want)
		}
	}
}

func TestMetaAnswer(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"What is the unit of amount of substance?", false},
		{"", true},
		{"Here is a question about moles?", true},
		{"As an AI I cannot write that?", true},
		{"Sure, what is a mole?", true},
		{"The mole is the unit of amount of substance in chemistry.", true},
		{"A mole.", false},
		{string(make([]byte, 121)), true},
	}
	for _, tt := range tests {
		if got := MetaAnswer(tt.text); got != tt.want {
			t.Errorf("MetaAnswer(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
