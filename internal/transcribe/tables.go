package transcribe

import "kwangun/internal/rules"

// =============================================================================
// SYMBOL TABLES
// =============================================================================

// Onsets maps the 纽 value to its onset symbol. 云 is the silent onset.
var Onsets = rules.Table{
	"幫": "p", "滂": "ph", "並": "b", "明": "m",
	"端": "t", "透": "th", "定": "d", "泥": "n", "來": "l",
	"知": "tr", "徹": "trh", "澄": "dr", "孃": "nr",
	"見": "k", "溪": "kh", "羣": "g", "疑": "ng", "云": "",
	"影": "q", "曉": "h", "匣": "gh",
	"精": "ts", "清": "tsh", "從": "dz", "心": "s", "邪": "z",
	"莊": "tsr", "初": "tsrh", "崇": "dzr", "生": "sr", "俟": "zr",
	"章": "tj", "昌": "tjh", "常": "dj", "書": "sj", "船": "zj", "日": "nj", "以": "j",
}

// Tones maps the 声 value to its tone marker. 平 and 入 are unmarked.
var Tones = rules.Table{
	"上": "q",
	"去": "h",
}

// CompositeRhymes selects the rhyme body by rhyme group. 蒸韻 A類 precedes 蒸韻.
var CompositeRhymes = rules.List{
	{When: "脂韻", Then: "i"}, {When: "之韻", Then: "y"}, {When: "尤侯韻", Then: "u"},
	{When: "支韻", Then: "e"}, {When: "佳韻", Then: "ee"}, {When: "魚韻", Then: "eo"}, {When: "虞模韻", Then: "o"},
	{When: "麻韻", Then: "ae"}, {When: "歌韻", Then: "a"},

	{When: "蒸韻 A類", Then: "ing"}, {When: "蒸韻", Then: "yng"}, {When: "東韻", Then: "ung"},
	{When: "青韻", Then: "eng"}, {When: "耕韻", Then: "eeng"}, {When: "登韻", Then: "eong"},
	{When: "冬鍾韻", Then: "ong"}, {When: "江韻", Then: "oeung"},
	{When: "庚清韻", Then: "aeng"}, {When: "陽唐韻", Then: "ang"},

	{When: "微韻", Then: "uj"},
	{When: "齊祭韻", Then: "ej"}, {When: "皆韻", Then: "eej"}, {When: "灰咍廢韻", Then: "oj"},
	{When: "夬韻", Then: "aej"}, {When: "泰韻", Then: "aj"},

	{When: "真臻韻", Then: "in"}, {When: "殷文韻", Then: "un"},
	{When: "先仙韻", Then: "en"}, {When: "山韻", Then: "een"}, {When: "元魂痕韻", Then: "on"},
	{When: "刪韻", Then: "aen"}, {When: "寒韻", Then: "an"},

	{When: "幽韻", Then: "iw"},
	{When: "蕭宵韻", Then: "ew"},
	{When: "肴韻", Then: "aew"}, {When: "豪韻", Then: "aw"},

	{When: "侵韻", Then: "im"},
	{When: "鹽添韻", Then: "em"}, {When: "咸韻", Then: "eem"}, {When: "覃嚴凡韻", Then: "om"},
	{When: "銜韻", Then: "aem"}, {When: "談韻", Then: "am"},
}

// FlatRhymes is the fallback rhyme body keyed by rhyme base, used when no
// composite rule matches.
var FlatRhymes = rules.Table{
	"脂": "i", "之": "y", "尤": "u", "侯": "u",
	"支": "e", "佳": "ee", "魚": "eo", "虞": "o", "模": "o",
	"麻": "ae", "歌": "a",
	"蒸": "yng", "東": "ung",
	"青": "eng", "耕": "eeng", "登": "eong", "冬": "ong", "鍾": "ong", "江": "oeung",
	"庚": "aeng", "清": "aeng", "陽": "ang", "唐": "ang",
	"微": "uj",
	"齊": "ej", "祭": "ej", "皆": "eej", "灰": "oj", "咍": "oj", "廢": "oj",
	"夬": "aej", "泰": "aj",
	"真": "in", "臻": "in", "殷": "un", "文": "un",
	"先": "en", "仙": "en", "山": "een", "元": "on", "魂": "on", "痕": "on",
	"刪": "aen", "寒": "an",
	"幽": "iw",
	"蕭": "ew", "宵": "ew",
	"肴": "aew", "豪": "aw",
	"侵": "im",
	"鹽": "em", "添": "em", "咸": "eem", "覃": "om", "嚴": "om", "凡": "om",
	"銜": "aem", "談": "am",
}
