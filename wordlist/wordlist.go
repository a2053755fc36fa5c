// Package wordlist renders raw bytes as a sequence of English words, and
// parses them back, so a short byte string (here, a session's SAS
// fingerprint) can be read aloud or compared by eye instead of as hex.
package wordlist

import "strings"

// Phrase renders data as a hyphen-joined sequence of words, one per
// byte, alternating between even- and odd-indexed halves of the word
// list so adjacent bytes never draw from overlapping vocabulary — the
// same parity trick the per-byte encoding this is adapted from uses to
// make transposed words detectable by ear.
func Phrase(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	words := make([]string, len(data))
	for i, b := range data {
		words[i] = enWords[int(b)*2+i%2]
	}
	return strings.Join(words, "-")
}

// Parse reverses Phrase. It returns ok=false if any word is not in the
// list, or if a word's parity does not match its position.
func Parse(phrase string) (data []byte, ok bool) {
	phrase = strings.ReplaceAll(phrase, "-", " ")
	phrase = strings.ReplaceAll(phrase, "+", " ")
	parts := strings.Fields(phrase)
	if len(parts) == 0 {
		return nil, false
	}

	out := make([]byte, len(parts))
	for i, p := range parts {
		j := indexOf(p)
		if j < 0 {
			return nil, false
		}
		if i%2 != j%2 {
			return nil, false
		}
		out[i] = byte(j / 2)
	}
	return out, true
}

// Match returns the first word in the list with the given prefix, or
// the empty string if none match — used for input auto-completion.
func Match(prefix string) string {
	if prefix == "" {
		return ""
	}
	for _, w := range enWords {
		if strings.HasPrefix(w, prefix) {
			return w
		}
	}
	return ""
}

func indexOf(word string) int {
	for i, w := range enWords {
		if strings.EqualFold(word, w) {
			return i
		}
	}
	return -1
}

// enWords is based on the EFF short wordlist, filtered by unique soundex.
// https://www.eff.org/deeplinks/2016/07/new-wordlists-random-passphrases
// Credit to Nick Moore https://nick.zoic.org/art/shorter-words-list/
var enWords = []string{
	"acorn", "acre",
	"acts", "afar",
	"affix", "aged",
	"agent", "agile",
	"aging", "agony",
	"aide", "aids",
	"aim", "alarm",
	"alike", "alive",
	"aloe", "aloft",
	"alone", "amend",
	"ample", "amuse",
	"angel", "anger",
	"apple", "april",
	"apron", "area",
	"argue", "armed",
	"armor", "army",
	"arson", "art",
	"atlas", "atom",
	"avert", "avoid",
	"axis", "bacon",
	"baker", "balmy",
	"barn", "basil",
	"baton", "bats",
	"blank", "blast",
	"blend", "blimp",
	"blob", "blog",
	"blurt", "boil",
	"bok", "bolt",
	"bony", "bribe",
	"bring", "broad",
	"broil", "broke",
	"bud", "bunch",
	"bunt", "bust",
	"calm", "canal",
	"candy", "card",
	"case", "cedar",
	"chump", "civic",
	"civil", "clamp",
	"clasp", "class",
	"clay", "clear",
	"cleft", "clerk",
	"cling", "clip",
	"cold", "come",
	"comic", "cork",
	"cost", "cover",
	"craft", "cramp",
	"crank", "crisp",
	"crop", "crown",
	"crust", "cub",
	"cupid", "cure",
	"curl", "cut",
	"cycle", "dab",
	"dad", "dart",
	"deal", "debt",
	"debug", "decaf",
	"decal", "decor",
	"dent", "dig",
	"dimly", "ditch",
	"doing", "donor",
	"down", "drab",
	"drank", "dress",
	"drift", "drill",
	"drum", "dry",
	"dust", "early",
	"earth", "east",
	"eaten", "ebony",
	"echo", "edge",
	"eel", "elder",
	"elf", "elk",
	"elm", "elude",
	"elves", "email",
	"emit", "empty",
	"emu", "enter",
	"envoy", "equal",
	"erase", "error",
	"erupt", "evade",
	"even", "evict",
	"evil", "evoke",
	"fable", "fact",
	"fall", "fang",
	"femur", "fend",
	"fetal", "fetch",
	"fever", "fifth",
	"film", "final",
	"fit", "five",
	"flag", "fled",
	"fling", "flint",
	"flip", "flirt",
	"flyer", "foam",
	"fox", "frail",
	"fray", "fresh",
	"from", "front",
	"frost", "fruit",
	"gap", "gas",
	"gem", "genre",
	"gift", "given",
	"giver", "glad",
	"glass", "goal",
	"golf", "gong",
	"grab", "grant",
	"grasp", "grass",
	"green", "grew",
	"grid", "grill",
	"gut", "habit",
	"halt", "harm",
	"hasty", "hatch",
	"haven", "hazel",
	"help", "herbs",
	"hers", "hub",
	"hug", "hull",
	"human", "hump",
	"hung", "hunt",
	"hurry", "hurt",
	"hut", "ice",
	"icing", "icon",
	"igloo", "image",
	"ion", "iron",
	"item", "ivory",
	"ivy", "jam",
	"jet", "job",
	"jog", "jolt",
	"judge", "july",
	"jump", "junky",
	"jury", "keep",
	"keg", "kept",
	"kilt", "king",
	"kite", "knee",
	"knelt", "koala",
	"ladle", "lake",
	"land", "last",
	"latch", "left",
	"legal", "lens",
	"level", "lid",
	"lilac", "lily",
	"limb", "line",
	"lip", "liver",
	"lunar", "lure",
	"lurk", "maker",
	"mango", "manor",
	"map", "march",
	"mardi", "marry",
	"match", "malt",
	"mom", "most",
	"motor", "mount",
	"mud", "mug",
	"mulch", "mule",
	"mumbo", "mural",
	"nag", "nail",
	"name", "nap",
	"near", "nerd",
	"net", "next",
	"ninth", "oak",
	"oat", "ocean",
	"oil", "old",
	"olive", "omen",
	"only", "open",
	"opera", "opt",
	"ounce", "outer",
	"oval", "pagan",
	"palm", "pants",
	"paper", "park",
	"party", "patch",
	"pep", "perm",
	"pest", "petal",
	"petri", "plank",
	"plant", "plot",
	"plus", "pod",
	"poem", "poker",
	"polar", "pond",
	"prank", "print",
	"prism", "proof",
	"props", "pry",
	"pug", "pull",
	"pulp", "punk",
	"pupil", "quake",
	"query", "quill",
	"quit", "rabid",
	"radar", "raft",
	"ramp", "rank",
	"rant", "recap",
	"relax", "reply",
	"rerun", "rigor",
	"ritzy", "river",
	"robin", "rope",
	"rug", "ruin",
	"rule", "rust",
	"rut", "salt",
	"same", "scale",
	"scan", "scold",
	"score", "scorn",
	"scrap", "sect",
	"self", "send",
	"set", "seven",
	"share", "shirt",
	"shrug", "silk",
	"silo", "sip",
	"siren", "skip",
	"skirt", "sky",
	"slam", "slang",
	"slept", "slurp",
	"small", "smirk",
	"smog", "snap",
	"snare", "snarl",
	"snort", "speak",
	"spent", "spill",
	"sport", "spot",
	"spur", "stamp",
	"stand", "stark",
	"start", "stem",
	"sting", "stir",
	"stole", "stop",
	"storm", "suds",
	"surf", "swirl",
	"tag", "tall",
	"talon", "tamer",
	"tank", "taper",
	"taps", "tart",
	"taste", "theft",
	"thumb", "tidal",
	"tidy", "tiger",
	"tilt", "tint",
	"tiny", "train",
	"trap", "trek",
	"trend", "trial",
	"trunk", "try",
	"tulip", "tutor",
	"uncle", "uncut",
	"unify", "union",
	"unit", "upon",
	"upper", "urban",
	"used", "user",
	"utter", "value",
	"vapor", "vegan",
	"venue", "vest",
	"vice", "viral",
	"virus", "visor",
	"vocal", "void",
	"volt", "voter",
	"wad", "wafer",
	"wager", "wagon",
	"walk", "wasp",
	"watch", "water",
	"widen", "wife",
	"wilt", "wind",
	"wing", "wiry",
	"wok", "wolf",
	"womb", "wool",
	"word", "work",
	"woven", "wrist",
	"xerox", "yam",
	"yard", "year",
	"yeast", "yelp",
	"yield", "yodel",
	"yoga", "zebra",
	"zero", "zesty",
	"zippy", "zone",
}
