// Package country provides the static ISO country and currency lookup data
// used by the account resolver and the donation finalizer.
package country

import "strings"

var englishNames = map[string]string{
	"AF": "Afghanistan", "AX": "Åland Islands", "AL": "Albania", "DZ": "Algeria",
	"AS": "American Samoa", "AD": "Andorra", "AO": "Angola", "AI": "Anguilla",
	"AQ": "Antarctica", "AG": "Antigua and Barbuda", "AR": "Argentina", "AM": "Armenia",
	"AW": "Aruba", "AU": "Australia", "AT": "Austria", "AZ": "Azerbaijan",
	"BS": "Bahamas", "BH": "Bahrain", "BD": "Bangladesh", "BB": "Barbados",
	"BY": "Belarus", "BE": "Belgium", "BZ": "Belize", "BJ": "Benin",
	"BM": "Bermuda", "BT": "Bhutan", "BO": "Bolivia, Plurinational State of",
	"BA": "Bosnia and Herzegovina", "BW": "Botswana", "BR": "Brazil",
	"BN": "Brunei Darussalam", "BG": "Bulgaria", "BF": "Burkina Faso", "BI": "Burundi",
	"KH": "Cambodia", "CM": "Cameroon", "CA": "Canada", "CV": "Cape Verde",
	"KY": "Cayman Islands", "CF": "Central African Republic", "TD": "Chad", "CL": "Chile",
	"CN": "China", "CO": "Colombia", "KM": "Comoros", "CG": "Congo, Republic of",
	"CD": "Congo, Democratic Republic of the", "CK": "Cook Islands", "CR": "Costa Rica",
	"CI": "Côte d'Ivoire", "HR": "Croatia", "CU": "Cuba", "CW": "Curaçao",
	"CY": "Cyprus", "CZ": "Czech Republic", "DK": "Denmark", "DJ": "Djibouti",
	"DM": "Dominica", "DO": "Dominican Republic", "EC": "Ecuador", "EG": "Egypt",
	"SV": "El Salvador", "GQ": "Equatorial Guinea", "ER": "Eritrea", "EE": "Estonia",
	"ET": "Ethiopia", "FK": "Falkland Islands (Malvinas)", "FO": "Faroe Islands",
	"FJ": "Fiji", "FI": "Finland", "FR": "France", "GF": "French Guiana",
	"PF": "French Polynesia", "GA": "Gabon", "GM": "Gambia", "GE": "Georgia",
	"DE": "Germany", "GH": "Ghana", "GI": "Gibraltar", "GR": "Greece",
	"GL": "Greenland", "GD": "Grenada", "GP": "Guadeloupe", "GU": "Guam",
	"GT": "Guatemala", "GG": "Guernsey", "GN": "Guinea", "GW": "Guinea-Bissau",
	"GY": "Guyana", "HT": "Haiti", "VA": "Holy See (Vatican City State)",
	"HN": "Honduras", "HK": "Hong Kong", "HU": "Hungary", "IS": "Iceland",
	"IN": "India", "ID": "Indonesia", "IR": "Iran, Islamic Republic of", "IQ": "Iraq",
	"IE": "Ireland", "IM": "Isle of Man", "IL": "Israel", "IT": "Italy",
	"JM": "Jamaica", "JP": "Japan", "JE": "Jersey", "JO": "Jordan",
	"KZ": "Kazakhstan", "KE": "Kenya", "KI": "Kiribati",
	"KP": "Korea, Democratic People's Republic of", "KR": "Korea, Republic of",
	"KW": "Kuwait", "KG": "Kyrgyzstan", "LA": "Lao People's Democratic Republic",
	"LV": "Latvia", "LB": "Lebanon", "LS": "Lesotho", "LR": "Liberia",
	"LY": "Libya", "LI": "Liechtenstein", "LT": "Lithuania", "LU": "Luxembourg",
	"MO": "Macao", "MK": "Macedonia, Former Yugoslav Republic of", "MG": "Madagascar",
	"MW": "Malawi", "MY": "Malaysia", "MV": "Maldives", "ML": "Mali",
	"MT": "Malta", "MH": "Marshall Islands", "MQ": "Martinique", "MR": "Mauritania",
	"MU": "Mauritius", "YT": "Mayotte", "MX": "Mexico",
	"FM": "Micronesia, Federated States of", "MD": "Moldova, Republic of",
	"MC": "Monaco", "MN": "Mongolia", "ME": "Montenegro", "MS": "Montserrat",
	"MA": "Morocco", "MZ": "Mozambique", "MM": "Myanmar", "NA": "Namibia",
	"NR": "Nauru", "NP": "Nepal", "NL": "Netherlands", "NC": "New Caledonia",
	"NZ": "New Zealand", "NI": "Nicaragua", "NE": "Niger", "NG": "Nigeria",
	"NU": "Niue", "NF": "Norfolk Island", "MP": "Northern Mariana Islands",
	"NO": "Norway", "OM": "Oman", "PK": "Pakistan", "PW": "Palau",
	"PS": "Palestinian Territory, Occupied", "PA": "Panama", "PG": "Papua New Guinea",
	"PY": "Paraguay", "PE": "Peru", "PH": "Philippines", "PN": "Pitcairn",
	"PL": "Poland", "PT": "Portugal", "PR": "Puerto Rico", "QA": "Qatar",
	"RE": "Réunion", "RO": "Romania", "RU": "Russian Federation", "RW": "Rwanda",
	"KN": "Saint Kitts and Nevis", "LC": "Saint Lucia",
	"VC": "Saint Vincent and the Grenadines", "WS": "Samoa", "SM": "San Marino",
	"ST": "Sao Tome and Principe", "SA": "Saudi Arabia", "SN": "Senegal",
	"RS": "Serbia", "SC": "Seychelles", "SL": "Sierra Leone", "SG": "Singapore",
	"SK": "Slovakia", "SI": "Slovenia", "SB": "Solomon Islands", "SO": "Somalia",
	"ZA": "South Africa", "SS": "South Sudan", "ES": "Spain", "LK": "Sri Lanka",
	"SD": "Sudan", "SR": "Suriname", "SZ": "Swaziland", "SE": "Sweden",
	"CH": "Switzerland", "SY": "Syrian Arab Republic", "TW": "Taiwan, Province of China",
	"TJ": "Tajikistan", "TZ": "Tanzania, United Republic of", "TH": "Thailand",
	"TL": "Timor-Leste", "TG": "Togo", "TK": "Tokelau", "TO": "Tonga",
	"TT": "Trinidad and Tobago", "TN": "Tunisia", "TR": "Turkey", "TM": "Turkmenistan",
	"TC": "Turks and Caicos Islands", "TV": "Tuvalu", "UG": "Uganda", "UA": "Ukraine",
	"AE": "United Arab Emirates", "GB": "United Kingdom", "US": "United States",
	"UY": "Uruguay", "UZ": "Uzbekistan", "VU": "Vanuatu",
	"VE": "Venezuela, Bolivarian Republic of", "VN": "Viet Nam",
	"WF": "Wallis and Futuna", "EH": "Western Sahara", "YE": "Yemen",
	"ZM": "Zambia", "ZW": "Zimbabwe",
}

// currencyCountries lists, in declared order, the country codes where a
// currency is used. Order matters: the account resolver takes the first
// country with a complete credential bundle.
var currencyCountries = map[string][]string{
	"USD": {"US", "EC", "SV", "PA", "PR", "TL"},
	"EUR": {"DE", "FR", "ES", "IT", "NL", "BE", "AT", "IE", "PT", "FI", "GR", "SK", "SI", "LU", "LV", "LT", "EE", "CY", "MT", "MC"},
	"GBP": {"GB", "IM", "JE", "GG"},
	"CHF": {"CH", "LI"},
	"SEK": {"SE"},
	"NOK": {"NO"},
	"DKK": {"DK", "GL", "FO"},
	"CAD": {"CA"},
	"AUD": {"AU", "KI", "NR", "TV"},
	"NZD": {"NZ", "CK", "NU", "PN", "TK"},
	"JPY": {"JP"},
	"CZK": {"CZ"},
	"PLN": {"PL"},
	"HUF": {"HU"},
	"RON": {"RO"},
	"BGN": {"BG"},
	"TRY": {"TR"},
	"SGD": {"SG"},
	"HKD": {"HK"},
	"INR": {"IN"},
	"BRL": {"BR"},
	"MXN": {"MX"},
	"ZAR": {"ZA", "LS", "NA", "SZ"},
}

// EnglishName returns the English country name for an ISO 3166-1 alpha-2
// code, or the code itself when unknown.
func EnglishName(code string) string {
	if name, ok := englishNames[strings.ToUpper(code)]; ok {
		return name
	}
	return code
}

// IsCode reports whether the value is a known ISO country code.
func IsCode(code string) bool {
	_, ok := englishNames[strings.ToUpper(code)]
	return ok
}

// CodesByCurrency returns the country codes where a currency is used, in
// declared order. The result is empty for unknown currencies.
func CodesByCurrency(currency string) []string {
	return currencyCountries[strings.ToUpper(currency)]
}
