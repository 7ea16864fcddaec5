package constants

const USER_AGENT = "ministats/1.0 (+https://github.com/Amund211/ministats)"
