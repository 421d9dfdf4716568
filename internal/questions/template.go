package questions

import (
	"fmt"
	"strings"
)

// stock questions for common chemistry keywords, matched by substring in
// order; the first hit wins.
var stock = []struct{ key, question string }{
	{"mole", "What is the unit used to measure the amount of a substance called?"},
	{"mass", "What is the quantity of matter in an object called?"},
	{"concentration", "What is the amount of solute per unit volume of solution called?"},
	{"acid", "What type of substance produces hydrogen ions (H⁺) in aqueous solution?"},
	{"alkali", "What type of base is soluble in water?"},
	{"titration", "What is the technique used to determine the concentration of an unknown solution?"},
	{"neutralisation", "What is the reaction between an acid and a base called?"},
	{"relative atomic mass", "What is the weighted average mass of an atom compared to 1/12th the mass of a carbon-12 atom?"},
	{"relative formula mass", "What is the sum of the relative atomic masses of all atoms in a formula called?"},
	{"percentage by mass", "What calculation shows the mass of an element as a percentage of the total mass?"},
	{"avogadro", "What is the number of particles in one mole of a substance called?"},
	{"limiting reactant", "What is the reactant that is completely used up in a reaction called?"},
	{"hydrogen ion", "What ion is produced by acids in aqueous solution?"},
	{"hydroxide ion", "What ion is produced by alkalis in aqueous solution?"},
}

// Template returns an exam-style fallback question for keyword.
func Template(keyword, subject string) string {
	kw := strings.ToLower(keyword)
	for _, s := range stock {
		if strings.Contains(kw, s.key) {
			return s.question
		}
	}

	if subject == "" {
		subject = "Chemistry"
	}
	switch {
	case strings.Contains(kw, "formula"), strings.Contains(kw, "equation"):
		return fmt.Sprintf("What is %s in %s?", keyword, strings.ToLower(subject))
	case strings.Contains(kw, "reaction"), strings.Contains(kw, "process"):
		return fmt.Sprintf("What is the %s process called?", keyword)
	}
	return fmt.Sprintf("What is %s?", keyword)
}
