package odds

import "strings"

// Sport slugs understood by the odds provider, keyed by the UI-facing name.
var sportSlugs = map[string]string{
	"NFL":    "americanfootball_nfl",
	"NCAAF":  "americanfootball_ncaaf",
	"NBA":    "basketball_nba",
	"NCAAB":  "basketball_ncaab",
	"MLB":    "baseball_mlb",
	"NHL":    "icehockey_nhl",
	"Soccer": "soccer_epl",
	"UFC":    "mma_mixed_martial_arts",
}

// SportSlug maps a UI sport name to its provider slug. Unknown names pass
// through lowercased so callers can address provider slugs directly.
func SportSlug(sport string) string {
	if slug, ok := sportSlugs[sport]; ok {
		return slug
	}
	return strings.ToLower(sport)
}

// Provider market keys for the regular bet types.
var betTypeMarkets = map[string][]string{
	"moneyline": {"h2h"},
	"spread":    {"spreads"},
	"total":     {"totals"},
}

// Prop market keys per sport. The provider only answers prop queries on its
// per-event endpoint, so these are partitioned away from the regular keys.
var propMarkets = map[string][]string{
	"americanfootball_nfl":   {"player_pass_tds", "player_pass_yds", "player_rush_yds", "player_receptions", "player_anytime_td"},
	"americanfootball_ncaaf": {"player_pass_tds", "player_pass_yds", "player_rush_yds"},
	"basketball_nba":         {"player_points", "player_rebounds", "player_assists", "player_threes"},
	"basketball_ncaab":       {"player_points", "player_rebounds"},
	"baseball_mlb":           {"batter_home_runs", "batter_hits", "pitcher_strikeouts"},
	"icehockey_nhl":          {"player_goals", "player_shots_on_goal", "player_points"},
}

// MarketKeys expands UI bet types into provider market keys for a sport.
func MarketKeys(betTypes []string, sportSlug string) []string {
	var keys []string
	seen := make(map[string]bool)
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	for _, bt := range betTypes {
		switch strings.ToLower(bt) {
		case "player_props", "props", "prop":
			for _, k := range propMarkets[sportSlug] {
				add(k)
			}
		default:
			for _, k := range betTypeMarkets[strings.ToLower(bt)] {
				add(k)
			}
		}
	}
	return keys
}

// IsPropMarket reports whether a market key requires the per-event endpoint.
func IsPropMarket(key string) bool {
	return strings.HasPrefix(key, "player_") ||
		strings.HasPrefix(key, "batter_") ||
		strings.HasPrefix(key, "pitcher_") ||
		strings.HasPrefix(key, "team_")
}

// partitionMarkets splits market keys into regular and prop groups.
func partitionMarkets(keys []string) (regular, props []string) {
	for _, k := range keys {
		if IsPropMarket(k) {
			props = append(props, k)
		} else {
			regular = append(regular, k)
		}
	}
	return regular, props
}
