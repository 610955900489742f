package filter

// Built-in rule IDs, in evaluation order.
const (
	RuleSelfHarm          = "self-harm"
	RuleViolentThreats    = "violent-threats"
	RuleHateSpeech        = "hate-speech"
	RuleHateSlursEthnic   = "hate-slurs-ethnic"
	RuleHateSlursLGBT     = "hate-slurs-lgbt"
	RuleHateSlursAbleist  = "hate-slurs-ableist"
	RuleExplicitProfanity = "explicit-profanity"
	RuleSexualContent     = "sexual-content"
	RuleMildProfanity     = "mild-profanity"

	// RulePhoneNumber is reported by the phone detector, which is not part of
	// the rule table.
	RulePhoneNumber = "phone-number"
)

// protectedGroups matches group nouns referenced by hate-speech phrases.
// Patterns run on normalized (lower-case) text.
const protectedGroups = `(?:jews?|muslims?|blacks?|whites?|asians?|mexicans?|arabs?|immigrants?|refugees?|gypsies|gays?|lesbians?|trans(?:gender)?(?:\s+(?:people|folks))?|women|christians?)`

// wordEnd closes a pattern at a word boundary. Normalize maps '!' and '|' to
// 'i', so trailing runs of 'i' are absorbed before the boundary.
const wordEnd = `i*\b`

var builtinRules = []Rule{
	{
		ID:       RuleSelfHarm,
		Label:    "Self-harm or suicidal content",
		Category: CategorySelfHarm,
		Severity: SeverityCritical,
		Patterns: []string{
			`\bkill\s*my\s*self`,
			`\bkms` + wordEnd,
			`\bsuicid(?:e|al)`,
			`\bunalive`,
			`\b(?:want|wanna)\s+(?:to\s+)?die` + wordEnd,
			`\bend\s+(?:it\s+all|my\s+life)`,
			`\b(?:cut|cutting|hurt|hurting)\s+myself`,
			`\bself[\s-]?harm`,
		},
	},
	{
		ID:       RuleViolentThreats,
		Label:    "Threats of violence",
		Category: CategoryViolence,
		Severity: SeverityCritical,
		Patterns: []string{
			`\b(?:going\s+to|gonna|will|i'?ll|we'?ll)\s+(?:kill|murder|stab|shoot|strangle|hurt)\s+(?:(?:you|ya|u)` + wordEnd + `|your\s+family)`,
			`\bbeat\s+(?:you|u)\s+(?:to\s+death|senseless)`,
			`\bkys` + wordEnd,
			`\bkill\s+your\s*self`,
			`\byou\s+(?:should|deserve\s+to)\s+die` + wordEnd,
			`\bi\s+know\s+where\s+you\s+live` + wordEnd,
		},
	},
	{
		ID:       RuleHateSpeech,
		Label:    "Hate speech against a protected group",
		Category: CategoryHateSpeech,
		Severity: SeverityCritical,
		Patterns: []string{
			`\b(?:all|those|these|the)\s+` + protectedGroups + `\s+(?:should|must|need\s+to|deserve\s+to)\s+(?:die|be\s+(?:killed|exterminated|gassed)|burn)`,
			`\b(?:kill|gas|exterminate)\s+(?:all\s+)?(?:the\s+)?` + protectedGroups + wordEnd,
			`\b` + protectedGroups + `\s+are\s+(?:subhuman|vermin|animals|parasites|cockroaches)` + wordEnd,
			`\bheil\s+hitler` + wordEnd,
			`\bsieg\s+heil` + wordEnd,
			`\bhitler\s+was\s+right` + wordEnd,
		},
	},
	{
		ID:       RuleHateSlursEthnic,
		Label:    "Ethnic or racial slur",
		Category: CategoryHateSpeech,
		Severity: SeverityCritical,
		Patterns: []string{
			`\b(?:sand\s*)?n+i+g+g+(?:e+r+|a+h?|u+h+)s?` + wordEnd,
			`\bkikes?` + wordEnd,
			`\bspics?` + wordEnd,
			`\bwetbacks?` + wordEnd,
			`\bgooks?` + wordEnd,
			`\bbeaners?` + wordEnd,
			`\b(?:rag|towel)\s*heads?` + wordEnd,
			`\bpakis?` + wordEnd,
			`\bjungle\s*bunn(?:y|ies)` + wordEnd,
		},
	},
	{
		ID:       RuleHateSlursLGBT,
		Label:    "Anti-LGBT slur",
		Category: CategoryHateSpeech,
		Severity: SeverityCritical,
		Patterns: []string{
			`\bf+a+g+(?:g+o+t+)?s?` + wordEnd,
			`\bd+y+k+e+s?` + wordEnd,
			`\btr+a+n+n+(?:y|ie)s?` + wordEnd,
			`\bshe-?males?` + wordEnd,
		},
	},
	{
		ID:       RuleHateSlursAbleist,
		Label:    "Ableist slur",
		Category: CategoryHateSpeech,
		Severity: SeverityCritical,
		Patterns: []string{
			`\br+e+t+a+r+d+(?:s|ed)?` + wordEnd,
			`\bspa+z+(?:es|zes|zed|zy)?` + wordEnd,
			`\bmongoloids?` + wordEnd,
		},
	},
	{
		ID:       RuleExplicitProfanity,
		Label:    "Explicit profanity",
		Category: CategoryProfanity,
		Severity: SeverityHigh,
		Patterns: []string{
			`f+u+c+k+`,
			`\bs+h+i+t+(?:s|ty|head|e)?` + wordEnd,
			`\bb+i+t+c+h+(?:e+s|y|ing|in)?` + wordEnd,
			`\bc+u+n+t+s?` + wordEnd,
			`\ba+s+s+h+o+l+e+s?` + wordEnd,
			`\bdick\s*heads?` + wordEnd,
			`\bbastards?` + wordEnd,
			`\bwhores?` + wordEnd,
			`\bwankers?` + wordEnd,
			`\bpiss\s+off` + wordEnd,
		},
	},
	{
		ID:       RuleSexualContent,
		Label:    "Sexual content or solicitation",
		Category: CategoryInappropriate,
		Severity: SeverityHigh,
		Patterns: []string{
			`\bsend\s+(?:me\s+)?(?:some\s+|your\s+)?n(?:u|oo)des?` + wordEnd,
			`\bsext(?:ing)?` + wordEnd,
			`\bporn(?:o|ography|hub)?` + wordEnd,
			`\b(?:wanna|want\s+to|let'?s)\s+(?:have\s+)?(?:sex|hook\s+up|bang)` + wordEnd,
			`\b(?:blow|hand)\s*jobs?` + wordEnd,
			`\bdick\s*pics?` + wordEnd,
			`\bnaked\s+(?:pics?|photos?|selfies?)` + wordEnd,
			`\bhorny` + wordEnd,
			`\bonly\s*fans` + wordEnd,
		},
	},
	{
		ID:       RuleMildProfanity,
		Label:    "Mild profanity",
		Category: CategoryProfanity,
		Severity: SeverityMedium,
		Patterns: []string{
			`\bcrap(?:py|s)?` + wordEnd,
			`\bdamn(?:it|ed)?` + wordEnd,
			`\bhell` + wordEnd,
			`\bpiss(?:ed|y)?` + wordEnd,
		},
	},
}

// BuiltinRules returns a copy of the compiled-in rule table in evaluation
// order.
func BuiltinRules() []Rule {
	return cloneRules(builtinRules)
}

func cloneRules(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = r.clone()
	}
	return out
}
