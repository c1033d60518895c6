package timetable

// TrainTime is one departure/arrival pair taken from a candidate block.
// To is empty when the block only carried a single time token.
type TrainTime struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// String renders the pair the way the plain-text route shows it.
func (t TrainTime) String() string {
	return t.From + " -> " + t.To
}

// SecretKey is the Ekispert API access key.
type SecretKey string

// Station pairs a display name with the search service's station code.
type Station struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	Code string `yaml:"code" json:"code" validate:"required,numeric"`
}

// TransportModes toggles the means of transport the web search may use.
type TransportModes struct {
	Highway    bool `yaml:"highway" json:"highway"`
	Liner      bool `yaml:"liner" json:"liner"`
	Local      bool `yaml:"local" json:"local"`
	Plane      bool `yaml:"plane" json:"plane"`
	Shinkansen bool `yaml:"shinkansen" json:"shinkansen"`
	Ship       bool `yaml:"ship" json:"ship"`
}

// RouteConfig is the fixed origin/destination and option set of one deployment.
// It is loaded once and treated as read-only afterwards.
type RouteConfig struct {
	Origin      Station `yaml:"origin" json:"origin"`
	Destination Station `yaml:"destination" json:"destination"`

	// Optional intermediate stations; sent empty when unset.
	Via1     Station `yaml:"via1" json:"-" validate:"-"`
	Via2     Station `yaml:"via2" json:"-" validate:"-"`
	Provider string  `yaml:"provider" json:"-"`

	Locale      string         `yaml:"locale" json:"locale" validate:"required"`
	Modes       TransportModes `yaml:"modes" json:"modes"`
	Connect     bool           `yaml:"connect" json:"connect"`
	Sort        string         `yaml:"sort" json:"sort" validate:"required,oneof=time fare transfer"`
	SearchType  string         `yaml:"search_type" json:"searchType" validate:"required,oneof=dep arr"`
	SubmitLabel string         `yaml:"submit_label" json:"-" validate:"required"`
	Surcharge   int            `yaml:"surcharge" json:"surcharge" validate:"gte=0"`
	TicketType  int            `yaml:"ticket_type" json:"ticketType" validate:"gte=0"`
	Transfer    int            `yaml:"transfer" json:"transfer" validate:"gte=0"`
	Checkmark   string         `yaml:"utf8" json:"-" validate:"required"`

	WebBaseURL string `yaml:"web_base_url" json:"-" validate:"required,url"`
	APIBaseURL string `yaml:"api_base_url" json:"-" validate:"required,url"`
}

const (
	DefaultWebBaseURL = "https://roote.ekispert.net/ja/result"
	DefaultAPIBaseURL = "https://api.ekispert.jp/v1/json/search/course/light"
)

// DefaultRoute returns the Toshimaen -> Tochomae route the display was built for.
func DefaultRoute() RouteConfig {
	return RouteConfig{
		Origin:      Station{Name: "豊島園(都営線)", Code: "22836"},
		Destination: Station{Name: "都庁前", Code: "29213"},
		Locale:      "ja",
		Modes: TransportModes{
			Highway:    true,
			Liner:      true,
			Local:      true,
			Plane:      true,
			Shinkansen: true,
			Ship:       true,
		},
		Connect:     true,
		Sort:        "time",
		SearchType:  "dep",
		SubmitLabel: "検索",
		Surcharge:   3,
		TicketType:  0,
		Transfer:    2,
		Checkmark:   "✓",
		WebBaseURL:  DefaultWebBaseURL,
		APIBaseURL:  DefaultAPIBaseURL,
	}
}
