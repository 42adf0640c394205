package query

import "strings"

// Audience tokens, grouped by category. Tokens within one category are
// alternatives (OR); categories narrow each other (AND).
const (
	TokenSuperVoter      = "audience_superVoter"
	TokenLikelyVoter     = "audience_likelyVoter"
	TokenUnlikelyVoter   = "audience_unlikelyVoter"
	TokenUnreliableVoter = "audience_unreliableVoter"
	TokenFirstTimeVoter  = "audience_firstTimeVoter"

	TokenDemocrat    = "party_democrat"
	TokenRepublican  = "party_republican"
	TokenIndependent = "party_independent"

	TokenAge18To25 = "age_18_25"
	TokenAge25To35 = "age_25_35"
	TokenAge35To50 = "age_35_50"
	TokenAge50Plus = "age_50_plus"

	TokenMale          = "gender_male"
	TokenFemale        = "gender_female"
	TokenGenderUnknown = "gender_unknown"
)

// performanceScore is the engagement column cast to an integer percentage.
// The raw column is text and holds sentinels ("Not Eligible", empty string)
// alongside values like "75%", so the cast is guarded by a digits-plus-'%'
// pattern match; anything else is treated as unscored rather than crashing
// the cast.
const (
	performancePattern = `"` + colPerformance + `" ~ '^\d+%$'`
	performanceScore   = `REPLACE("` + colPerformance + `", '%', '')::integer`
	ageScore           = `"` + colAge + `"::integer`
)

// tokenPredicates maps every recognized audience token to its SQL fragment.
// Fragments that contain AND carry their own parentheses so OR-joining
// within a category cannot change their meaning.
var tokenPredicates = map[string]string{
	// Engagement tiers: four non-overlapping score bands plus a first-time
	// bucket that matches the vendor's "never voted" sentinels exactly.
	TokenSuperVoter:      "(" + performancePattern + " AND " + performanceScore + " > 75)",
	TokenLikelyVoter:     "(" + performancePattern + " AND " + performanceScore + " > 50 AND " + performanceScore + " <= 75)",
	TokenUnlikelyVoter:   "(" + performancePattern + " AND " + performanceScore + " > 25 AND " + performanceScore + " <= 50)",
	TokenUnreliableVoter: "(" + performancePattern + " AND " + performanceScore + " > 1 AND " + performanceScore + " <= 25)",
	TokenFirstTimeVoter:  `"` + colPerformance + `" IN ('0%', 'Not Eligible', '')`,

	TokenDemocrat:   `"` + colParty + `" = 'Democratic'`,
	TokenRepublican: `"` + colParty + `" = 'Republican'`,
	// The vendor records unaffiliated voters under two different
	// descriptions depending on jurisdiction.
	TokenIndependent: `"` + colParty + `" = 'Non-Partisan' OR "` + colParty + `" = 'Independent'`,

	TokenAge18To25: "(" + ageScore + " >= 18 AND " + ageScore + " <= 25)",
	TokenAge25To35: "(" + ageScore + " > 25 AND " + ageScore + " <= 35)",
	TokenAge35To50: "(" + ageScore + " > 35 AND " + ageScore + " <= 50)",
	TokenAge50Plus: ageScore + " > 50",

	TokenMale:          `"` + colGender + `" = 'M'`,
	TokenFemale:        `"` + colGender + `" = 'F'`,
	TokenGenderUnknown: `"` + colGender + `" IS NULL`,
}

// audienceCategories fixes both the category order and the token order
// within each category, so the compiled predicate is byte-identical no
// matter what order the caller supplied the tokens in.
var audienceCategories = [][]string{
	{TokenSuperVoter, TokenLikelyVoter, TokenUnlikelyVoter, TokenUnreliableVoter, TokenFirstTimeVoter},
	{TokenDemocrat, TokenRepublican, TokenIndependent},
	{TokenAge18To25, TokenAge25To35, TokenAge35To50, TokenAge50Plus},
	{TokenMale, TokenFemale, TokenGenderUnknown},
}

// audiencePredicate compiles a set of audience tokens into one boolean SQL
// expression: tokens within a category OR-joined and parenthesized,
// non-empty categories AND-joined. Categories with no matching tokens
// contribute nothing, and unrecognized tokens are silently ignored — the
// token vocabulary is closed but callers are allowed to send tokens this
// version does not know.
//
// Returns "" when no recognized token is present.
func audiencePredicate(tokens []string) string {
	requested := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		requested[t] = true
	}

	var groups []string
	for _, category := range audienceCategories {
		var parts []string
		for _, token := range category {
			if requested[token] {
				parts = append(parts, tokenPredicates[token])
			}
		}
		if len(parts) > 0 {
			groups = append(groups, "("+strings.Join(parts, " OR ")+")")
		}
	}

	return strings.Join(groups, " AND ")
}
