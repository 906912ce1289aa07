package tariff

import "strings"

// RateCategory buckets tariff schedule lines for decision making
type RateCategory string

const (
	// CategoryBasic covers the standing rates: basic, WTO bound, provisional
	CategoryBasic RateCategory = "basic"
	// CategoryFTA covers preferential rates under a trade agreement
	CategoryFTA RateCategory = "fta"
	// CategorySpecial covers flexible and surcharge rates
	CategorySpecial RateCategory = "special"
	// CategoryOther covers type codes the classifier does not recognize
	CategoryOther RateCategory = "other"
)

// typeInfo decodes the customs rate-type letters used in the tariff
// schedule. Schedule data usually carries a trailing digit (C2, H1), so
// unknown codes also match on their first letter.
var typeInfo = map[string]struct {
	name     string
	category RateCategory
}{
	"A": {"기본관세", CategoryBasic},
	"U": {"WTO양허세율", CategoryBasic},
	"B": {"잠정세율", CategoryBasic},
	"C": {"조정관세(탄력관세)", CategorySpecial},
	"H": {"할당관세", CategorySpecial},
	"R": {"보복관세", CategorySpecial},
	"E": {"긴급관세", CategorySpecial},
	"S": {"계절관세", CategorySpecial},
	"Q": {"상계관세", CategorySpecial},
	"D": {"덤핑방지관세", CategorySpecial},
}

// additiveTypes are surcharges levied on top of the standing duty. A zero
// rate on these lines means "not currently applied", so they never enter
// the lowest-rate comparison at zero.
var additiveTypes = map[byte]bool{
	'R': true, // 보복관세
	'D': true, // 덤핑방지관세
	'Q': true, // 상계관세
	'E': true, // 긴급관세
	'G': true, // 긴급관세(세이프가드)
	'T': true, // 농림축산물 특별긴급관세
}

// Classification is the decoded meaning of one rate-type code
type Classification struct {
	Category RateCategory
	TypeName string
	// Agreement is the FTA stem (FUS, FEU, ...), set for preferential lines
	Agreement string
}

// ClassifyType decodes a rate-type code such as "A", "C2" or "FUS1".
// F-prefixed codes are preferential: the trailing digits are stripped and
// the stem resolves against the agreement table.
func ClassifyType(code string) Classification {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Classification{Category: CategoryOther}
	}

	if code[0] == 'F' && len(code) > 1 {
		stem := stripDigits(code)
		if ag, ok := AgreementFor(stem); ok {
			return Classification{Category: CategoryFTA, TypeName: ag.Name, Agreement: stem}
		}
		return Classification{Category: CategoryFTA, TypeName: "FTA협정세율(" + code + ")", Agreement: stem}
	}

	if info, ok := typeInfo[code]; ok {
		return Classification{Category: info.category, TypeName: info.name}
	}
	if info, ok := typeInfo[code[:1]]; ok {
		return Classification{Category: info.category, TypeName: info.name}
	}
	return Classification{Category: CategoryOther, TypeName: code}
}

// isAdditive reports whether a rate-type code is a surcharge on top of the
// standing duty
func isAdditive(code string) bool {
	return code != "" && additiveTypes[code[0]]
}

// stripDigits removes the digit characters from a rate-type code, leaving
// the letter stem
func stripDigits(code string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return -1
		}
		return r
	}, code)
}
