// Package capacity decides whether an announcement still has room for a
// supplier on each channel and whether a product selection fits the
// per-supplier quota.
package capacity

import (
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
	"github.com/Windi-Fikriyansyah/bazaar_be/internal/services/grouping"
)

// Gate is a read-only view over one announcement and its active
// registrations. Build a new Gate whenever the registrations change.
type Gate struct {
	announcement models.Announcement
	policy       grouping.Policy

	online  map[string]bool
	offline map[string]bool
}

func New(a models.Announcement, regs []models.Registration, policy grouping.Policy) *Gate {
	g := &Gate{
		announcement: a,
		policy:       policy,
		online:       make(map[string]bool),
		offline:      make(map[string]bool),
	}
	for i := range regs {
		r := &regs[i]
		if r.AnnouncementID != a.ID || !r.IsActive() {
			continue
		}
		if r.ParticipateOnline {
			g.online[r.SupplierName] = true
		}
		if r.ParticipateOffline {
			g.offline[r.SupplierName] = true
		}
	}
	return g
}

func (g *Gate) OnlineCount() int  { return len(g.online) }
func (g *Gate) OfflineCount() int { return len(g.offline) }

func (g *Gate) IsOnlineFull() bool {
	return len(g.online) >= g.announcement.MaxSuppliersOnline
}

func (g *Gate) IsOfflineFull() bool {
	return len(g.offline) >= g.announcement.MaxSuppliersOffline
}

// Holds reports whether supplier already occupies a slot on ch.
func (g *Gate) Holds(supplier string, ch models.Channel) bool {
	switch ch {
	case models.ChannelOnline:
		return g.online[supplier]
	case models.ChannelOffline:
		return g.offline[supplier]
	}
	return false
}

type QuotaResult struct {
	OK             bool                `json:"ok"`
	DistinctGroups int                 `json:"distinctGroups"`
	Limit          int                 `json:"limit"`
	Groups         map[string][]string `json:"groups,omitempty"`
}

func (g *Gate) CheckProductQuota(items []models.SelectedProduct) QuotaResult {
	groups := grouping.Groups(g.policy, items)
	limit := g.announcement.MaxProductsPerSupplier
	return QuotaResult{
		OK:             len(groups) <= limit,
		DistinctGroups: len(groups),
		Limit:          limit,
		Groups:         groups,
	}
}

type Availability struct {
	OnlineAllowed  bool `json:"onlineAllowed"`
	OfflineAllowed bool `json:"offlineAllowed"`
}

// Refused lists the requested channels that are not allowed.
func (a Availability) Refused(wantsOnline, wantsOffline bool) []models.Channel {
	var out []models.Channel
	if wantsOnline && !a.OnlineAllowed {
		out = append(out, models.ChannelOnline)
	}
	if wantsOffline && !a.OfflineAllowed {
		out = append(out, models.ChannelOffline)
	}
	return out
}

// CanRegister answers which channels supplier may use. A channel the
// supplier already holds stays allowed even when full, so editing is
// never blocked by the supplier's own slot. Channels not requested are
// reported as allowed.
func (g *Gate) CanRegister(supplier string, wantsOnline, wantsOffline bool) Availability {
	return Availability{
		OnlineAllowed:  !wantsOnline || g.Holds(supplier, models.ChannelOnline) || !g.IsOnlineFull(),
		OfflineAllowed: !wantsOffline || g.Holds(supplier, models.ChannelOffline) || !g.IsOfflineFull(),
	}
}

type ChannelSummary struct {
	Suppliers int  `json:"suppliers"`
	Max       int  `json:"max"`
	Remaining int  `json:"remaining"`
	Full      bool `json:"full"`
}

type Summary struct {
	Online                 ChannelSummary `json:"online"`
	Offline                ChannelSummary `json:"offline"`
	MaxProductsPerSupplier int            `json:"maxProductsPerSupplier"`
	GroupingPolicy         string         `json:"groupingPolicy"`
}

func (g *Gate) Summary() Summary {
	return Summary{
		Online:                 channelSummary(len(g.online), g.announcement.MaxSuppliersOnline),
		Offline:                channelSummary(len(g.offline), g.announcement.MaxSuppliersOffline),
		MaxProductsPerSupplier: g.announcement.MaxProductsPerSupplier,
		GroupingPolicy:         string(g.policy),
	}
}

func channelSummary(count, limit int) ChannelSummary {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return ChannelSummary{
		Suppliers: count,
		Max:       limit,
		Remaining: remaining,
		Full:      count >= limit,
	}
}
