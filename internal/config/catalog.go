package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/gosimple/slug"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// TierSpec is one membership tier as declared in tiers.yml.
type TierSpec struct {
	ID            string   `mapstructure:"id"`
	Name          string   `mapstructure:"name"`
	Description   string   `mapstructure:"description"`
	Price         float64  `mapstructure:"price"`
	DisplayPrice  string   `mapstructure:"display_price"`
	OriginalPrice float64  `mapstructure:"original_price"`
	Currency      string   `mapstructure:"currency"`
	Active        *bool    `mapstructure:"active"`
	UserTypes     []string `mapstructure:"user_types"`
	Features      []string `mapstructure:"features"`
}

// IsActive defaults to true when the catalog omits the flag.
func (t TierSpec) IsActive() bool {
	return t.Active == nil || *t.Active
}

type TierCatalog struct {
	Tiers []TierSpec `mapstructure:"tiers"`
}

var tierIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var knownUserTypes = map[string]struct{}{
	"founder":  {},
	"partner":  {},
	"investor": {},
}

func DefaultTierCatalog() TierCatalog {
	founder := []string{"founder"}
	return TierCatalog{
		Tiers: []TierSpec{
			{
				ID:           "explorer",
				Name:         "Explorer",
				Description:  "Step inside & watch the sparks fly.",
				Price:        0,
				DisplayPrice: "Free",
				Currency:     "EUR",
				UserTypes:    founder,
				Features: []string{
					"Digital Explorer Badge: Shareable proof you were here first",
					"Dynamic QR Art: Personalised graphic linking to your referral profile",
					"Premium Sticker Pack",
					"Event Directory Access: Browse all public events",
					"Monthly Digest: Roadmap updates and partner promotions",
				},
			},
			{
				ID:           "ignite",
				Name:         "Ignite",
				Description:  "You've sparked the flame. Welcome to the Circle.",
				Price:        79,
				DisplayPrice: "€79",
				Currency:     "EUR",
				UserTypes:    founder,
				Features: []string{
					"Ignite Card: Matte-graphite PVC card with QR profile link",
					"Welcome Merch Pack: Minimalist T-shirt (black or white) and sticker trio",
					"Ignite Zone Community: Private channel for idea-stage builders",
					"Exclusive Event Access: Quarterly virtual meet-ups and early-bird registration",
					"Permanent Recognition: Name on the digital Wall of Founding Sparks",
				},
			},
			{
				ID:           "forge",
				Name:         "Forge",
				Description:  "You're shaping something real. Let's build it together.",
				Price:        299,
				DisplayPrice: "€299",
				Currency:     "EUR",
				UserTypes:    founder,
				Features: []string{
					"Forge Card: Brushed-aluminium, NFC-enabled card, individually numbered",
					"Forge Merch Kit: Premium T-shirt & Hoodie with TheFounders branding",
					"Forge Circle Masterminds: Private, industry-specific mastermind groups",
					"Priority Event Access: Regional meet-ups, Beta Weekend, closed workshops",
					"Advanced Tools: Early access to co-founder matcher, pitch vault, investor discovery",
					"Complimentary 6-month Pro Plan upon launch",
				},
			},
			{
				ID:           "vanguard",
				Name:         "Vanguard",
				Description:  "You're on the front-lines of scale. Lead with others like you.",
				Price:        699,
				DisplayPrice: "€699",
				Currency:     "EUR",
				UserTypes:    founder,
				Features: []string{
					"Vanguard Card: Gold-tinted titanium card with NFC & dynamic QR",
					"Elite Merch Capsule: Premium T-shirt, Hoodie, plus numbered field notebook",
					"Vanguard Council: High-signal peer group with curated introductions",
					"VIP Event Access: VIP check-in, complimentary tickets, exclusive quarterly meetups",
					"Platform Showcase: Featured profile in Founders of 2025 showcase",
					"Lifetime 25% discount on all future TF services",
				},
			},
			{
				ID:           "legacy",
				Name:         "Legacy",
				Description:  "You've walked the road. Now help define it for others.",
				Price:        1399,
				DisplayPrice: "€1,399",
				Currency:     "EUR",
				UserTypes:    founder,
				Features: []string{
					"Legacy Card: Black steel card with diamond-accent and personalised Founder Code",
					"Legacy Capsule: Premium merch, special present, and framed Legacy Letter",
					"The Hall: Lifetime seat in strategic advisory group, nominate Founder-in-Residence",
					"Ultimate Event Access: Lifetime ticket-free access to every TF event",
					"Permanent Legacy: Founder story in Legacy Library, lifetime tool access",
				},
			},
		},
	}
}

// TierCatalogHolder keeps the current catalog and notifies subscribers on reload.
type TierCatalogHolder struct {
	current atomic.Value // holds TierCatalog

	mu        sync.Mutex
	listeners []func(TierCatalog)
}

// NewStaticTierCatalogHolder wraps a fixed catalog without watching any file.
func NewStaticTierCatalogHolder(catalog TierCatalog) (*TierCatalogHolder, error) {
	normalized, err := NormalizeTierCatalog(catalog)
	if err != nil {
		return nil, err
	}
	holder := &TierCatalogHolder{}
	holder.current.Store(normalized)
	return holder, nil
}

func NewTierCatalogHolder(log *zap.Logger) (*TierCatalogHolder, error) {
	log = log.Named("tier.catalog")

	v := viper.New()
	v.SetConfigName("tiers")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/foundr")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FOUNDR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		log.Info("tiers.yml not found, using built-in catalog")
		return NewStaticTierCatalogHolder(DefaultTierCatalog())
	}

	var catalog TierCatalog
	if err := v.Unmarshal(&catalog); err != nil {
		return nil, err
	}
	holder, err := NewStaticTierCatalogHolder(catalog)
	if err != nil {
		return nil, err
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated TierCatalog
		if err := v.Unmarshal(&updated); err != nil {
			log.Warn("tier catalog reload failed", zap.Error(err))
			return
		}
		if err := holder.Replace(updated); err != nil {
			log.Warn("invalid tier catalog ignored", zap.Error(err))
			return
		}
		log.Info("tier catalog reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *TierCatalogHolder) Get() TierCatalog {
	return h.current.Load().(TierCatalog)
}

// Replace validates and stores a new catalog, then notifies subscribers.
func (h *TierCatalogHolder) Replace(catalog TierCatalog) error {
	normalized, err := NormalizeTierCatalog(catalog)
	if err != nil {
		return err
	}
	h.current.Store(normalized)

	h.mu.Lock()
	listeners := append([]func(TierCatalog){}, h.listeners...)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(normalized)
	}
	return nil
}

func (h *TierCatalogHolder) OnChange(fn func(TierCatalog)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

// NormalizeTierCatalog fills derived fields and rejects invalid tiers.
func NormalizeTierCatalog(catalog TierCatalog) (TierCatalog, error) {
	if len(catalog.Tiers) == 0 {
		return TierCatalog{}, errors.New("tiers cannot be empty")
	}

	seen := make(map[string]struct{}, len(catalog.Tiers))
	out := TierCatalog{Tiers: make([]TierSpec, 0, len(catalog.Tiers))}
	for i, t := range catalog.Tiers {
		t.Name = strings.TrimSpace(t.Name)
		t.ID = strings.TrimSpace(t.ID)
		if t.ID == "" {
			t.ID = slug.Make(t.Name)
		}
		if t.ID == "" || !tierIDPattern.MatchString(t.ID) {
			return TierCatalog{}, fmt.Errorf("tiers[%d]: invalid id %q", i, t.ID)
		}
		if _, dup := seen[t.ID]; dup {
			return TierCatalog{}, fmt.Errorf("tiers[%d]: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = struct{}{}

		if t.Name == "" {
			return TierCatalog{}, fmt.Errorf("tiers[%d]: name is required", i)
		}
		if t.Price < 0 {
			return TierCatalog{}, fmt.Errorf("tiers[%d]: price cannot be negative", i)
		}

		t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
		if t.Currency == "" {
			t.Currency = "EUR"
		}
		if t.DisplayPrice == "" {
			if t.Price == 0 {
				t.DisplayPrice = "Free"
			} else {
				t.DisplayPrice = fmt.Sprintf("%s %.0f", t.Currency, t.Price)
			}
		}

		if len(t.UserTypes) == 0 {
			t.UserTypes = []string{"founder"}
		}
		userTypes := make([]string, 0, len(t.UserTypes))
		for _, ut := range t.UserTypes {
			ut = strings.ToLower(strings.TrimSpace(ut))
			if _, ok := knownUserTypes[ut]; !ok {
				return TierCatalog{}, fmt.Errorf("tiers[%d]: unknown user type %q", i, ut)
			}
			userTypes = append(userTypes, ut)
		}
		t.UserTypes = userTypes

		out.Tiers = append(out.Tiers, t)
	}
	return out, nil
}
