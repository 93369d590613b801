package domain

// TokenPair is the access+refresh credential pair minted together at login
// and refresh time. The halves are never re-issued independently.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
