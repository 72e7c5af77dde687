package auth

// Claims representa la identidad ya validada por la capa externa de auth.
// Este core nunca autentica: userID y callsign llegan pre-validados.
type Claims struct {
	UserID   string
	Callsign string
}
