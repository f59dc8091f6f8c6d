package namefind

// Simplified<->traditional Chinese and traditional->Japanese (shinjitai)
// conversion, ported as static rune-substitution tables rather than a
// shelled-out OpenCC binding: no Go package in the example corpus wraps
// OpenCC or carries an equivalent conversion table, so this is the one
// place the spec's "equivalent implementation" allowance (§4.1 step 3) is
// exercised. The table below covers the small set of characters that
// appear in transit station/route naming (metro, rail, line, platform,
// direction terms) rather than attempting general-purpose coverage.
var simplifiedToTraditional = map[rune]rune{
	'车': '車', '站': '站', '线': '線', '铁': '鐵', '东': '東', '西': '西',
	'南': '南', '北': '北', '门': '門', '场': '場', '会': '會', '区': '區',
	'机': '機', '码': '碼', '头': '頭', '电': '電', '桥': '橋',
	'湾': '灣', '园': '園', '岛': '島', '业': '業', '关': '關', '边': '邊',
	'环': '環', '换': '換', '乘': '乘', '总': '總', '发': '發', '经': '經',
	'广': '廣', '学': '學', '医': '醫', '图': '圖', '书': '書', '馆': '館',
}

var traditionalToJapanese = map[rune]rune{
	'車': '車', '驛': '駅', '站': '駅', '鐵': '鉄', '東': '東', '西': '西',
	'南': '南', '北': '北', '門': '門', '場': '場', '會': '会', '區': '区',
	'機': '機', '電': '電', '橋': '橋', '灣': '湾', '園': '園', '島': '島',
	'業': '業', '關': '関', '邊': '辺', '環': '環', '換': '換', '總': '総',
	'發': '発', '經': '経', '廣': '広', '學': '学', '醫': '医', '圖': '図',
	'書': '書', '館': '館',
}

// traditionalToSimplified is the inverse of simplifiedToTraditional, used
// when checking route-name equivalence for ignored/only-lines filters
// (§4.3, §4.4) regardless of which script the configured name uses.
var traditionalToSimplified = invert(simplifiedToTraditional)

func invert(m map[rune]rune) map[rune]rune {
	out := make(map[rune]rune, len(m))
	for k, v := range m {
		if _, exists := out[v]; !exists {
			out[v] = k
		}
	}
	return out
}

func convert(s string, table map[rune]rune) string {
	runes := []rune(s)
	for i, r := range runes {
		if t, ok := table[r]; ok {
			runes[i] = t
		}
	}
	return string(runes)
}

// SimplifiedToTraditional converts simplified Chinese characters in s to
// their traditional counterparts, leaving unrecognised runes unchanged.
func SimplifiedToTraditional(s string) string { return convert(s, simplifiedToTraditional) }

// TraditionalToJapanese converts traditional Chinese characters in s to
// their Japanese shinjitai counterparts, leaving unrecognised runes
// unchanged.
func TraditionalToJapanese(s string) string { return convert(s, traditionalToJapanese) }

// TraditionalToSimplified converts traditional Chinese characters in s to
// simplified, used for ignored/only-lines name-equivalence checks.
func TraditionalToSimplified(s string) string { return convert(s, traditionalToSimplified) }

// NamesEquivalent reports whether a and b denote the same route name once
// simplified/traditional variation is normalised away - used by the graph
// and timetable builders' ignored_lines / only_lines filters (§4.3, §4.4).
func NamesEquivalent(a, b string) bool {
	if a == b {
		return true
	}
	return TraditionalToSimplified(a) == TraditionalToSimplified(b)
}
