package tariff

import (
	"sort"
	"strings"
)

// Agreement is one free trade agreement in force for Korea. Code is the
// stem that prefixes the preferential rate type codes in the tariff
// schedule (FUS1, FEU1, ...).
type Agreement struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Countries     []string `json:"countries"`
	EffectiveDate string   `json:"effective_date"`
}

// agreements lists the FTAs in entry-into-force order.
var agreements = []Agreement{
	{Code: "FCL", Name: "한-칠레 FTA", Countries: []string{"CL"}, EffectiveDate: "2004-04-01"},
	{Code: "FSG", Name: "한-싱가포르 FTA", Countries: []string{"SG"}, EffectiveDate: "2006-03-02"},
	{Code: "FEF", Name: "한-EFTA FTA", Countries: []string{"CH", "NO", "IS", "LI"}, EffectiveDate: "2006-09-01"},
	{Code: "FAS", Name: "한-아세안 FTA", Countries: []string{"BN", "KH", "ID", "LA", "MY", "MM", "PH", "SG", "TH", "VN"}, EffectiveDate: "2007-06-01"},
	{Code: "FIN", Name: "한-인도 CEPA", Countries: []string{"IN"}, EffectiveDate: "2010-01-01"},
	{Code: "FEU", Name: "한-EU FTA", Countries: []string{"AT", "BE", "BG", "HR", "CY", "CZ", "DK", "EE", "FI", "FR", "DE", "GR", "HU", "IE", "IT", "LV", "LT", "LU", "MT", "NL", "PL", "PT", "RO", "SK", "SI", "ES", "SE"}, EffectiveDate: "2011-07-01"},
	{Code: "FPE", Name: "한-페루 FTA", Countries: []string{"PE"}, EffectiveDate: "2011-08-01"},
	{Code: "FUS", Name: "한-미국 FTA", Countries: []string{"US"}, EffectiveDate: "2012-03-15"},
	{Code: "FTR", Name: "한-터키 FTA", Countries: []string{"TR"}, EffectiveDate: "2013-05-01"},
	{Code: "FAU", Name: "한-호주 FTA", Countries: []string{"AU"}, EffectiveDate: "2014-12-12"},
	{Code: "FCA", Name: "한-캐나다 FTA", Countries: []string{"CA"}, EffectiveDate: "2015-01-01"},
	{Code: "FCN", Name: "한-중국 FTA", Countries: []string{"CN"}, EffectiveDate: "2015-12-20"},
	{Code: "FNZ", Name: "한-뉴질랜드 FTA", Countries: []string{"NZ"}, EffectiveDate: "2015-12-20"},
	{Code: "FVN", Name: "한-베트남 FTA", Countries: []string{"VN"}, EffectiveDate: "2015-12-20"},
	{Code: "FCO", Name: "한-콜롬비아 FTA", Countries: []string{"CO"}, EffectiveDate: "2016-07-15"},
	{Code: "FCE", Name: "한-중미 FTA", Countries: []string{"CR", "SV", "HN", "NI", "PA"}, EffectiveDate: "2019-10-01"},
	{Code: "FGB", Name: "한-영국 FTA", Countries: []string{"GB"}, EffectiveDate: "2021-01-01"},
	{Code: "FRC", Name: "RCEP", Countries: []string{"AU", "BN", "KH", "CN", "ID", "JP", "LA", "MY", "MM", "NZ", "PH", "SG", "TH", "VN"}, EffectiveDate: "2022-02-01"},
	{Code: "FIL", Name: "한-이스라엘 FTA", Countries: []string{"IL"}, EffectiveDate: "2022-12-01"},
	{Code: "FKH", Name: "한-캄보디아 FTA", Countries: []string{"KH"}, EffectiveDate: "2022-12-01"},
	{Code: "FID", Name: "한-인도네시아 CEPA", Countries: []string{"ID"}, EffectiveDate: "2023-01-01"},
	{Code: "FPH", Name: "한-필리핀 FTA", Countries: []string{"PH"}, EffectiveDate: "2024-01-01"},
}

var agreementIndex = make(map[string]*Agreement, len(agreements))

func init() {
	for i := range agreements {
		agreementIndex[agreements[i].Code] = &agreements[i]
	}
}

// AgreementFor returns the agreement registered under a rate-type stem
func AgreementFor(stem string) (Agreement, bool) {
	ag, ok := agreementIndex[stem]
	if !ok {
		return Agreement{}, false
	}
	return *ag, true
}

// Agreements returns all known agreements ordered by code
func Agreements() []Agreement {
	out := make([]Agreement, len(agreements))
	copy(out, agreements)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// AgreementsForCountry returns the agreements covering an ISO country code
// in entry-into-force order
func AgreementsForCountry(countryCode string) []Agreement {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	var out []Agreement
	for _, ag := range agreements {
		for _, c := range ag.Countries {
			if c == countryCode {
				out = append(out, ag)
				break
			}
		}
	}
	return out
}
