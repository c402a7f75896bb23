package content

// DefaultDataset returns the built-in dataset. It is a fresh copy on every
// call so callers may modify it.
func DefaultDataset() []Row {
	rows := make([]Row, len(defaultRows))
	copy(rows, defaultRows)
	return rows
}

var defaultRows = []Row{
	{"的", "de", "of (possessive particle)", "של", "这是我的书。", "zhè shì wǒ de shū.", "This is my book.", "זה הספר שלי.", 412, "particles"},
	{"一", "yī", "one", "אחד", "我有一个苹果。", "wǒ yǒu yí gè píngguǒ.", "I have an apple.", "יש לי תפוח אחד.", 305, "numbers"},
	{"是", "shì", "to be", "להיות", "他是老师。", "tā shì lǎoshī.", "He is a teacher.", "הוא מורה.", 290, "verbs"},
	{"我", "wǒ", "I; me", "אני", "我爱你。", "wǒ ài nǐ.", "I love you.", "אני אוהב אותך.", 281, "pronouns"},
	{"不", "bù", "not", "לא", "我不喝咖啡。", "wǒ bù hē kāfēi.", "I don't drink coffee.", "אני לא שותה קפה.", 260, "particles"},
	{"了", "le", "completed action particle", "מילית של פעולה שהושלמה", "我吃了饭。", "wǒ chī le fàn.", "I have eaten.", "אכלתי.", 244, "particles"},
	{"你", "nǐ", "you", "אתה", "你好吗？", "nǐ hǎo ma?", "How are you?", "מה שלומך?", 233, "pronouns"},
	{"人", "rén", "person", "אדם", "他是好人。", "tā shì hǎo rén.", "He is a good person.", "הוא אדם טוב.", 198, "nouns"},
	{"在", "zài", "at; in", "נמצא ב", "我在家。", "wǒ zài jiā.", "I am at home.", "אני בבית.", 187, "verbs"},
	{"有", "yǒu", "to have", "יש", "你有时间吗？", "nǐ yǒu shíjiān ma?", "Do you have time?", "יש לך זמן?", 176, "verbs"},
	{"他", "tā", "he; him", "הוא", "他很高。", "tā hěn gāo.", "He is tall.", "הוא גבוה.", 169, "pronouns"},
	{"这", "zhè", "this", "זה", "这很好。", "zhè hěn hǎo.", "This is good.", "זה טוב.", 150, "pronouns"},
	{"好", "hǎo", "good", "טוב", "今天天气很好。", "jīntiān tiānqì hěn hǎo.", "The weather is good today.", "מזג האוויר טוב היום.", 142, "adjectives"},
	{"中", "zhōng", "middle; China", "אמצע", "我在中国。", "wǒ zài Zhōngguó.", "I am in China.", "אני בסין.", 120, "nouns"},
	{"大", "dà", "big", "גדול", "这个房子很大。", "zhège fángzi hěn dà.", "This house is big.", "הבית הזה גדול.", 111, "adjectives"},
	{"来", "lái", "to come", "לבוא", "请你来我家。", "qǐng nǐ lái wǒ jiā.", "Please come to my home.", "בבקשה בוא לביתי.", 98, "verbs"},
	{"上", "shàng", "up; on", "למעלה; על", "书在桌子上。", "shū zài zhuōzi shàng.", "The book is on the table.", "הספר על השולחן.", 87, "nouns"},
	{"水", "shuǐ", "water", "מים", "我想喝水。", "wǒ xiǎng hē shuǐ.", "I want to drink water.", "אני רוצה לשתות מים.", 64, "nouns"},
	{"朋友", "péngyou", "friend", "חבר", "他是我的朋友。", "tā shì wǒ de péngyou.", "He is my friend.", "הוא החבר שלי.", 52, "nouns"},
	{"学习", "xuéxí", "to study", "ללמוד", "我每天学习中文。", "wǒ měitiān xuéxí Zhōngwén.", "I study Chinese every day.", "אני לומד סינית כל יום.", 47, "verbs"},
}
