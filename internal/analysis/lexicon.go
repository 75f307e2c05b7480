package analysis

// polarityLexicon maps a lowercase word to its prior polarity in [-1, 1].
var polarityLexicon = map[string]float64{
	// favorable
	"amazing":       0.6,
	"awesome":       1.0,
	"beautiful":     0.85,
	"best":          1.0,
	"brilliant":     0.9,
	"clean":         0.37,
	"clear":         0.1,
	"comprehensive": 0.3,
	"cool":          0.35,
	"detailed":      0.4,
	"easy":          0.43,
	"enjoy":         0.4,
	"enjoyed":       0.5,
	"excellent":     1.0,
	"fantastic":     0.4,
	"fun":           0.3,
	"glad":          0.5,
	"good":          0.7,
	"great":         0.8,
	"happy":         0.8,
	"helpful":       0.5,
	"impressive":    1.0,
	"incredible":    0.9,
	"informative":   0.5,
	"insightful":    0.5,
	"interesting":   0.5,
	"love":          0.5,
	"loved":         0.7,
	"lovely":        0.5,
	"masterpiece":   0.8,
	"nice":          0.6,
	"outstanding":   0.5,
	"perfect":       1.0,
	"perfectly":     1.0,
	"recommend":     0.3,
	"superb":        1.0,
	"thank":         0.2,
	"thanks":        0.2,
	"thorough":      0.3,
	"useful":        0.3,
	"valuable":      0.3,
	"wonderful":     1.0,
	"wow":           0.1,

	// unfavorable
	"annoying":      -0.8,
	"awful":         -1.0,
	"bad":           -0.7,
	"boring":        -1.0,
	"broken":        -0.4,
	"clickbait":     -0.6,
	"confused":      -0.4,
	"confusing":     -0.4,
	"difficult":     -0.5,
	"disappointed":  -0.75,
	"disappointing": -0.6,
	"dislike":       -0.5,
	"error":         -0.3,
	"errors":        -0.3,
	"fake":          -0.5,
	"hard":          -0.29,
	"hate":          -0.8,
	"hated":         -0.9,
	"horrible":      -1.0,
	"issue":         -0.1,
	"lame":          -0.5,
	"meh":           -0.2,
	"misleading":    -0.5,
	"missing":       -0.2,
	"mistake":       -0.4,
	"mistakes":      -0.4,
	"outdated":      -0.3,
	"overrated":     -0.4,
	"poor":          -0.4,
	"problem":       -0.2,
	"sad":           -0.5,
	"slow":          -0.3,
	"stupid":        -0.8,
	"sucks":         -0.3,
	"terrible":      -1.0,
	"ugly":          -0.7,
	"unclear":       -0.2,
	"useless":       -0.5,
	"waste":         -0.2,
	"worst":         -1.0,
	"wrong":         -0.5,
}

// intensifiers scale the polarity of the next scored word
var intensifiers = map[string]float64{
	"very":       1.3,
	"really":     1.3,
	"extremely":  1.5,
	"super":      1.4,
	"so":         1.2,
	"incredibly": 1.5,
	"absolutely": 1.4,
	"quite":      1.1,
	"pretty":     1.1,
	"slightly":   0.6,
	"somewhat":   0.7,
}

// negators flip the polarity of the next scored word at half strength
var negators = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"nothing": true,
	"dont":    true,
	"don't":   true,
	"didnt":   true,
	"didn't":  true,
	"isnt":    true,
	"isn't":   true,
	"wasnt":   true,
	"wasn't":  true,
	"cant":    true,
	"can't":   true,
	"wont":    true,
	"won't":   true,
	"aint":    true,
	"hardly":  true,
}

// fillers keep a pending modifier alive ("not a good", "not that bad")
var fillers = map[string]bool{
	"a":    true,
	"an":   true,
	"the":  true,
	"that": true,
	"too":  true,
	"as":   true,
	"at":   true,
	"all":  true,
}

// positiveThemeTerms mark a positive comment sentence as a pro
var positiveThemeTerms = []string{
	"great", "amazing", "excellent", "fantastic", "awesome", "perfect", "love",
	"helpful", "useful", "clear", "easy", "understand", "good", "best",
	"informative", "detailed", "comprehensive", "thorough",
}

// negativeThemeTerms mark a negative comment sentence as a con
var negativeThemeTerms = []string{
	"bad", "terrible", "awful", "hate", "confusing", "unclear", "difficult",
	"hard", "boring", "slow", "fast", "short", "long", "missing", "wrong",
	"error", "mistake", "problem", "issue",
}

// requestPhrases signal a viewer asking for future content
var requestPhrases = []string{
	`how to`,
	`what about`,
	`can you explain`,
	`next video on`,
	`please make`,
	`do a video`,
	`tutorial on`,
	`show us`,
	`teach us`,
	`would love to see`,
}
