package feed

const (
	TypeRSS  = "rss"
	TypeAtom = "atom"
	TypeJSON = "json"
)
