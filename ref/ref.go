// Package ref holds the published reference tables disclosure forms draw
// their coded values from.
package ref

import "sort"

// IssueCode is a general lobbying issue area.
type IssueCode struct {
	Code string
	Name string
}

// FilingType maps a filing type code to the action it records.
type FilingType struct {
	Code   string
	Action string
	Name   string
}

// GeneralIssueCodes lists the Senate Office of Public Records general issue
// area codes.
var GeneralIssueCodes = []IssueCode{
	{"ACC", "Accounting"},
	{"ADV", "Advertising"},
	{"AER", "Aerospace"},
	{"AGR", "Agriculture"},
	{"ALC", "Alcohol & Drug Abuse"},
	{"ANI", "Animals"},
	{"APP", "Apparel/Clothing Industry/Textiles"},
	{"ART", "Arts/Entertainment"},
	{"AUT", "Automotive Industry"},
	{"AVI", "Aviation/Aircraft/Airlines"},
	{"BAN", "Banking"},
	{"BNK", "Bankruptcy"},
	{"BEV", "Beverage Industry"},
	{"BUD", "Budget/Appropriations"},
	{"CAW", "Clean Air & Water (Quality)"},
	{"CDT", "Commodities (Big Ticket)"},
	{"CHM", "Chemicals/Chemical Industry"},
	{"CIV", "Civil Rights/Civil Liberties"},
	{"COM", "Communications/Broadcasting/Radio/TV"},
	{"CPI", "Computer Industry"},
	{"CPT", "Copyright/Patent/Trademark"},
	{"CSP", "Consumer Issues/Safety/Protection"},
	{"CON", "Constitution"},
	{"DEF", "Defense"},
	{"DIS", "Disaster Planning/Emergencies"},
	{"DOC", "District of Columbia"},
	{"ECN", "Economics/Economic Development"},
	{"EDU", "Education"},
	{"ENG", "Energy/Nuclear"},
	{"ENV", "Environmental/Superfund"},
	{"FAM", "Family Issues/Abortion/Adoption"},
	{"FIN", "Financial Institutions/Investments/Securities"},
	{"FIR", "Firearms/Guns/Ammunition"},
	{"FOO", "Food Industry (Safety, Labeling, etc.)"},
	{"FOR", "Foreign Relations"},
	{"FUE", "Fuel/Gas/Oil"},
	{"GAM", "Gaming/Gambling/Casino"},
	{"GOV", "Government Issues"},
	{"HCR", "Health Issues"},
	{"HOM", "Homeland Security"},
	{"HOU", "Housing"},
	{"IMM", "Immigration"},
	{"IND", "Indian/Native American Affairs"},
	{"INS", "Insurance"},
	{"INT", "Intelligence and Surveillance"},
	{"LBR", "Labor Issues/Antitrust/Workplace"},
	{"LAW", "Law Enforcement/Crime/Criminal Justice"},
	{"MAN", "Manufacturing"},
	{"MAR", "Marine/Maritime/Boating/Fisheries"},
	{"MIA", "Media (Information/Publishing)"},
	{"MED", "Medical/Disease Research/Clinical Labs"},
	{"MMM", "Medicare/Medicaid"},
	{"MON", "Minting/Money/Gold Standard"},
	{"NAT", "Natural Resources"},
	{"PHA", "Pharmacy"},
	{"POS", "Postal"},
	{"RRR", "Railroads"},
	{"RES", "Real Estate/Land Use/Conservation"},
	{"REL", "Religion"},
	{"RET", "Retirement"},
	{"ROD", "Roads/Highway"},
	{"SCI", "Science/Technology"},
	{"SMB", "Small Business"},
	{"SPO", "Sports/Athletics"},
	{"TAR", "Miscellaneous Tariff Bills"},
	{"TAX", "Taxation/Internal Revenue Code"},
	{"TEC", "Telecommunications"},
	{"TOB", "Tobacco"},
	{"TOR", "Torts"},
	{"TRD", "Trade (Domestic & Foreign)"},
	{"TRA", "Transportation"},
	{"TOU", "Travel/Tourism"},
	{"TRU", "Trucking/Shipping"},
	{"URB", "Urban Development/Municipalities"},
	{"UNM", "Unemployment"},
	{"UTI", "Utilities"},
	{"VET", "Veterans"},
	{"WAS", "Waste (hazardous/solid/interstate/nuclear)"},
	{"WEL", "Welfare"},
}

// FilingTypes lists the filing type codes of the lobbying disclosure system.
var FilingTypes = []FilingType{
	{Code: "1", Action: "registration", Name: "REGISTRATION"},
	{Code: "2", Action: "registration_amendment", Name: "REGISTRATION AMENDMENT"},
	{Code: "3", Action: "report", Name: "MID-YEAR REPORT"},
	{Code: "4", Action: "report", Name: "MID-YEAR (NO ACTIVITY)"},
	{Code: "5", Action: "report_amendment", Name: "MID-YEAR AMENDMENT"},
	{Code: "6", Action: "termination", Name: "MID-YEAR TERMINATION"},
	{Code: "7", Action: "termination_letter", Name: "MID-YEAR TERMINATION LETTER"},
	{Code: "8", Action: "termination_amendment", Name: "MID-YEAR TERMINATION AMENDMENT"},
	{Code: "9", Action: "report", Name: "YEAR-END REPORT"},
	{Code: "10", Action: "report", Name: "YEAR-END (NO ACTIVITY)"},
	{Code: "11", Action: "report_amendment", Name: "YEAR-END AMENDMENT"},
	{Code: "12", Action: "termination", Name: "YEAR-END TERMINATION"},
	{Code: "13", Action: "termination_letter", Name: "YEAR-END TERMINATION LETTER"},
	{Code: "14", Action: "termination_amendment", Name: "YEAR-END TERMINATION AMENDMENT"},
	{Code: "15", Action: "termination", Name: "YEAR-END TERMINATION (NO ACTIVITY)"},
	{Code: "16", Action: "termination", Name: "MID-YEAR TERMINATION (NO ACTIVITY)"},
	{Code: "17", Action: "misc_termination", Name: "MISC TERM"},
	{Code: "18", Action: "misc_document", Name: "MISC. DOC"},
	{Code: "19", Action: "termination_amendment", Name: "MID-YEAR TERMINATION AMENDMENT (NO ACTIVITY)"},
	{Code: "20", Action: "report_amendment", Name: "MID-YEAR AMENDMENT (NO ACTIVITY)"},
	{Code: "21", Action: "report_amendment", Name: "YEAR-END AMENDMENT (NO ACTIVITY)"},
	{Code: "22", Action: "termination_amendment", Name: "YEAR-END TERMINATION AMENDMENT (NO ACTIVITY)"},
	{Code: "29", Action: "misc_update", Name: "UPDATE PAGE IN A REPORT"},
	{Code: "51", Action: "report", Name: "FIRST QUARTER REPORT"},
	{Code: "52", Action: "report", Name: "FIRST QUARTER (NO ACTIVITY)"},
	{Code: "53", Action: "termination", Name: "FIRST QUARTER TERMINATION"},
	{Code: "54", Action: "termination", Name: "FIRST QUARTER TERMINATION (NO ACTIVITY)"},
	{Code: "55", Action: "report_amendment", Name: "FIRST QUARTER AMENDMENT"},
	{Code: "56", Action: "report_amendment", Name: "FIRST QUARTER AMENDMENT (NO ACTIVITY)"},
	{Code: "57", Action: "termination_amendment", Name: "FIRST QUARTER TERMINATION AMENDMENT"},
	{Code: "58", Action: "termination_amendment", Name: "FIRST QUARTER TERMINATION AMENDMENT (NO ACTIVITY)"},
	{Code: "59", Action: "termination_letter", Name: "FIRST QUARTER TERMINATION LETTER"},
	{Code: "60", Action: "report", Name: "SECOND QUARTER REPORT"},
	{Code: "61", Action: "report", Name: "SECOND QUARTER (NO ACTIVITY)"},
	{Code: "62", Action: "termination", Name: "SECOND QUARTER TERMINATION"},
	{Code: "63", Action: "termination", Name: "SECOND QUARTER TERMINATION (NO ACTIVITY)"},
	{Code: "64", Action: "report_amendment", Name: "SECOND QUARTER AMENDMENT"},
	{Code: "65", Action: "report_amendment", Name: "SECOND QUARTER AMENDMENT (NO ACTIVITY)"},
	{Code: "66", Action: "termination_amendment", Name: "SECOND QUARTER TERMINATION AMENDMENT"},
	{Code: "67", Action: "termination_amendment", Name: "SECOND QUARTER TERMINATION AMENDMENT (NO ACTIVITY)"},
	{Code: "68", Action: "termination_letter", Name: "SECOND QUARTER TERMINATION LETTER"},
	{Code: "69", Action: "report", Name: "THIRD QUARTER REPORT"},
	{Code: "70", Action: "report", Name: "THIRD QUARTER (NO ACTIVITY)"},
	{Code: "71", Action: "termination", Name: "THIRD QUARTER TERMINATION"},
	{Code: "72", Action: "termination", Name: "THIRD QUARTER TERMINATION (NO ACTIVITY)"},
	{Code: "73", Action: "report_amendment", Name: "THIRD QUARTER AMENDMENT"},
	{Code: "74", Action: "report_amendment", Name: "THIRD QUARTER AMENDMENT (NO ACTIVITY)"},
	{Code: "75", Action: "termination_amendment", Name: "THIRD QUARTER TERMINATION AMENDMENT"},
	{Code: "76", Action: "termination_amendment", Name: "THIRD QUARTER TERMINATION AMENDMENT (NO ACTIVITY)"},
	{Code: "77", Action: "termination_letter", Name: "THIRD QUARTER TERMINATION LETTER"},
	{Code: "78", Action: "report", Name: "FOURTH QUARTER REPORT"},
	{Code: "79", Action: "report", Name: "FOURTH QUARTER (NO ACTIVITY)"},
	{Code: "80", Action: "termination", Name: "FOURTH QUARTER TERMINATION"},
	{Code: "81", Action: "termination", Name: "FOURTH QUARTER TERMINATION (NO ACTIVITY)"},
	{Code: "82", Action: "report_amendment", Name: "FOURTH QUARTER AMENDMENT"},
	{Code: "83", Action: "report_amendment", Name: "FOURTH QUARTER AMENDMENT (NO ACTIVITY)"},
	{Code: "84", Action: "termination_amendment", Name: "FOURTH QUARTER TERMINATION AMENDMENT"},
	{Code: "85", Action: "termination_amendment", Name: "FOURTH QUARTER TERMINATION AMENDMENT (NO ACTIVITY)"},
	{Code: "86", Action: "termination_letter", Name: "FOURTH QUARTER TERMINATION LETTER"},
}

// Table names accepted by enum_ref.
const (
	TableGeneralIssueCodes = "sopr_general_issue_codes"
	TableFilingTypeCodes   = "sopr_filing_type_codes"
	TableFilingActions     = "sopr_filing_actions"
)

// FilingTypeByCode returns the filing type registered under code.
func FilingTypeByCode(code string) (FilingType, bool) {
	for _, ft := range FilingTypes {
		if ft.Code == code {
			return ft, true
		}
	}
	return FilingType{}, false
}

// Resolver serves enum_ref lookups from the built-in tables.
type Resolver struct {
	tables map[string][]string
}

// Tables returns a Resolver over the built-in tables.
func Tables() *Resolver {
	issues := make([]string, len(GeneralIssueCodes))
	for i, c := range GeneralIssueCodes {
		issues[i] = c.Code
	}
	codes := make([]string, len(FilingTypes))
	seen := map[string]struct{}{}
	var actions []string
	for i, ft := range FilingTypes {
		codes[i] = ft.Code
		if _, ok := seen[ft.Action]; !ok {
			seen[ft.Action] = struct{}{}
			actions = append(actions, ft.Action)
		}
	}
	sort.Strings(actions)
	return &Resolver{tables: map[string][]string{
		TableGeneralIssueCodes: issues,
		TableFilingTypeCodes:   codes,
		TableFilingActions:     actions,
	}}
}

// Enum returns a copy of the named table.
func (r *Resolver) Enum(name string) ([]string, bool) {
	vs, ok := r.tables[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), vs...), true
}

// Names lists the table names in ascending order.
func (r *Resolver) Names() []string {
	out := make([]string, 0, len(r.tables))
	for k := range r.tables {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
