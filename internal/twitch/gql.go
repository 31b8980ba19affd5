package twitch

const (
	GQLURL = "https://gql.twitch.tv/gql"

	// The extension-style anonymous client id; persisted queries work
	// without any OAuth token under it.
	ClientIDBrowser = "kimne78kx3ncx6brgo4mv6wki5h1ko"

	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"
)

type GQLOperation struct {
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	Extensions    GQLExtensions          `json:"extensions"`
}

type GQLExtensions struct {
	PersistedQuery GQLPersistedQuery `json:"persistedQuery"`
}

type GQLPersistedQuery struct {
	Version    int    `json:"version"`
	SHA256Hash string `json:"sha256Hash"`
}

func NewGQLOperation(name, hash string) GQLOperation {
	return GQLOperation{
		OperationName: name,
		Extensions: GQLExtensions{
			PersistedQuery: GQLPersistedQuery{
				Version:    1,
				SHA256Hash: hash,
			},
		},
	}
}

func (g GQLOperation) WithVariables(vars map[string]interface{}) GQLOperation {
	g.Variables = vars
	return g
}

// VideoPlayerStreamInfoOverlayChannel returns the channel's display name,
// avatar, and (when live) the current stream with viewers, title, and game.
var VideoPlayerStreamInfoOverlayChannel = NewGQLOperation(
	"VideoPlayerStreamInfoOverlayChannel",
	"a5f2e34d626a9f4f5c0204f910bab2194948a9502089be558bb6e779a9e1b3d2",
)
