package concepts

import "strings"

var symbolWords = strings.NewReplacer(
	"∞", " infinity ", "±", " plus minus ", "≈", " approximately equal ",
	"~", " similar ", "≠", " not equal ", "≤", " less or equal ",
	"≥", " greater or equal ", "<", " less than ", ">", " greater than ",
	"×", " times ", "÷", " divided by ", "•", " bullet ", "√", " square root ",
	"∛", " cube root ", "∜", " fourth root ", "°", " degrees ",
	"%", " percent ", "‰", " per thousand ",
	"¹", " superscript one ", "²", " squared ", "³", " cubed ",
	"⁰", " superscript zero ", "⁴", " fourth power ", "⁵", " fifth power ",
	"⁶", " sixth power ", "⁷", " seventh power ", "⁸", " eighth power ",
	"⁹", " ninth power ", "⁻", " superscript minus ", "⁺", " superscript plus ",
	"ₙ", " subscript n ", "ᵢ", " subscript i ", "ⱼ", " subscript j ",
	"₀", " subscript zero ", "₁", " subscript one ", "₂", " subscript two ",
	"₃", " subscript three ",
	"∈", " belongs to ", "∉", " not belongs to ", "⊂", " subset of ",
	"⊃", " superset of ", "⊆", " subset or equal ", "⊇", " superset or equal ",
	"∪", " union ", "∩", " intersection ", "∅", " empty set ",
	"∀", " for all ", "∃", " exists ", "∄", " not exists ",
	"∴", " therefore ", "∵", " because ",
	"∧", " and ", "∨", " or ", "¬", " not ",
	"⇔", " if and only if ", "⇒", " implies ", "⇐", " implied by ",
	"∫", " integral ", "∬", " double integral ", "∮", " contour integral ",
	"∂", " partial derivative ", "∆", " delta ", "∇", " nabla ",
	"∑", " sum ", "∏", " product ",
	"→", " right arrow ", "←", " left arrow ", "↑", " up arrow ",
	"↓", " down arrow ", "↔", " left right arrow ", "↕", " up down arrow ", "↦", " maps to ",
	"α", " alpha ", "β", " beta ", "γ", " gamma ", "δ", " delta ",
	"ε", " epsilon ", "ζ", " zeta ", "η", " eta ", "θ", " theta ",
	"ι", " iota ", "κ", " kappa ", "λ", " lambda ", "μ", " mu ",
	"ν", " nu ", "ξ", " xi ", "ο", " omicron ", "π", " pi ",
	"ρ", " rho ", "σ", " sigma ", "τ", " tau ", "υ", " upsilon ",
	"φ", " phi ", "χ", " chi ", "ψ", " psi ", "ω", " omega ",
	"Γ", " Gamma ", "Δ", " Delta ", "Θ", " Theta ", "Λ", " Lambda ",
	"Ξ", " Xi ", "Π", " Pi ", "Σ", " Sigma ", "Φ", " Phi ",
	"Ψ", " Psi ", "Ω", " Omega ",
	"€", " euro ", "£", " pound ", "¥", " yen ", "$", " dollar ",
	"¢", " cent ", "©", " copyright ", "®", " registered ",
	"™", " trademark ", "…", " ellipsis ", "†", " dagger ",
	"‡", " double dagger ", "§", " section ", "¶", " paragraph ",
)

// allowed is every rune a definition may keep; everything else is typed
// poorly on a plain keyboard.
const allowed = "abcdefghijklmnopqrstuvwxyzáéíóúüñ" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZÁÉÍÓÚÜÑ" +
	"àèìòùâêîôûäëïöçãõ" +
	"ÀÈÌÒÙÂÊÎÔÛÄËÏÖÇÃÕ" +
	"0123456789" +
	" \t\n" +
	"()[]{}<>+-*/=.,;:?!_'¡¿" +
	"@#$%&€£" +
	"\\|`~^ºª·"

// Sanitize spells out math and typographic symbols, drops characters that
// are not on the allow-list, and collapses whitespace.
func Sanitize(text string) string {
	text = symbolWords.Replace(text)
	text = strings.Map(func(r rune) rune {
		if strings.ContainsRune(allowed, r) {
			return r
		}
		return -1
	}, text)
	return strings.Join(strings.Fields(text), " ")
}
