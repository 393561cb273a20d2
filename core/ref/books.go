package ref

// defaultBooks lists the Protestant canon in canonical order followed by the
// common deuterocanonical books. Short names are OSIS book IDs.
var defaultBooks = []NameEntry{
	// Old Testament
	{Display: "Genesis", Long: "Genesis", Short: "Gen"},
	{Display: "Exodus", Long: "Exodus", Short: "Exod"},
	{Display: "Leviticus", Long: "Leviticus", Short: "Lev"},
	{Display: "Numbers", Long: "Numbers", Short: "Num"},
	{Display: "Deuteronomy", Long: "Deuteronomy", Short: "Deut"},
	{Display: "Joshua", Long: "Joshua", Short: "Josh"},
	{Display: "Judges", Long: "Judges", Short: "Judg"},
	{Display: "Ruth", Long: "Ruth", Short: "Ruth"},
	{Display: "1 Samuel", Long: "1 Samuel", Short: "1Sam"},
	{Display: "2 Samuel", Long: "2 Samuel", Short: "2Sam"},
	{Display: "1 Kings", Long: "1 Kings", Short: "1Kgs"},
	{Display: "2 Kings", Long: "2 Kings", Short: "2Kgs"},
	{Display: "1 Chronicles", Long: "1 Chronicles", Short: "1Chr"},
	{Display: "2 Chronicles", Long: "2 Chronicles", Short: "2Chr"},
	{Display: "Ezra", Long: "Ezra", Short: "Ezra"},
	{Display: "Nehemiah", Long: "Nehemiah", Short: "Neh"},
	{Display: "Esther", Long: "Esther", Short: "Esth"},
	{Display: "Job", Long: "Job", Short: "Job"},
	{Display: "Psalms", Long: "Psalms", Short: "Ps"},
	{Display: "Proverbs", Long: "Proverbs", Short: "Prov"},
	{Display: "Ecclesiastes", Long: "Ecclesiastes", Short: "Eccl"},
	{Display: "Song of Songs", Long: "Song of Solomon", Short: "Song"},
	{Display: "Isaiah", Long: "Isaiah", Short: "Isa"},
	{Display: "Jeremiah", Long: "Jeremiah", Short: "Jer"},
	{Display: "Lamentations", Long: "Lamentations", Short: "Lam"},
	{Display: "Ezekiel", Long: "Ezekiel", Short: "Ezek"},
	{Display: "Daniel", Long: "Daniel", Short: "Dan"},
	{Display: "Hosea", Long: "Hosea", Short: "Hos"},
	{Display: "Joel", Long: "Joel", Short: "Joel"},
	{Display: "Amos", Long: "Amos", Short: "Amos"},
	{Display: "Obadiah", Long: "Obadiah", Short: "Obad"},
	{Display: "Jonah", Long: "Jonah", Short: "Jonah"},
	{Display: "Micah", Long: "Micah", Short: "Mic"},
	{Display: "Nahum", Long: "Nahum", Short: "Nah"},
	{Display: "Habakkuk", Long: "Habakkuk", Short: "Hab"},
	{Display: "Zephaniah", Long: "Zephaniah", Short: "Zeph"},
	{Display: "Haggai", Long: "Haggai", Short: "Hag"},
	{Display: "Zechariah", Long: "Zechariah", Short: "Zech"},
	{Display: "Malachi", Long: "Malachi", Short: "Mal"},

	// New Testament
	{Display: "Matthew", Long: "Matthew", Short: "Matt"},
	{Display: "Mark", Long: "Mark", Short: "Mark"},
	{Display: "Luke", Long: "Luke", Short: "Luke"},
	{Display: "John", Long: "John", Short: "John"},
	{Display: "Acts", Long: "Acts", Short: "Acts"},
	{Display: "Romans", Long: "Romans", Short: "Rom"},
	{Display: "1 Corinthians", Long: "1 Corinthians", Short: "1Cor"},
	{Display: "2 Corinthians", Long: "2 Corinthians", Short: "2Cor"},
	{Display: "Galatians", Long: "Galatians", Short: "Gal"},
	{Display: "Ephesians", Long: "Ephesians", Short: "Eph"},
	{Display: "Philippians", Long: "Philippians", Short: "Phil"},
	{Display: "Colossians", Long: "Colossians", Short: "Col"},
	{Display: "1 Thessalonians", Long: "1 Thessalonians", Short: "1Thess"},
	{Display: "2 Thessalonians", Long: "2 Thessalonians", Short: "2Thess"},
	{Display: "1 Timothy", Long: "1 Timothy", Short: "1Tim"},
	{Display: "2 Timothy", Long: "2 Timothy", Short: "2Tim"},
	{Display: "Titus", Long: "Titus", Short: "Titus"},
	{Display: "Philemon", Long: "Philemon", Short: "Phlm"},
	{Display: "Hebrews", Long: "Hebrews", Short: "Heb"},
	{Display: "James", Long: "James", Short: "Jas"},
	{Display: "1 Peter", Long: "1 Peter", Short: "1Pet"},
	{Display: "2 Peter", Long: "2 Peter", Short: "2Pet"},
	{Display: "1 John", Long: "1 John", Short: "1John"},
	{Display: "2 John", Long: "2 John", Short: "2John"},
	{Display: "3 John", Long: "3 John", Short: "3John"},
	{Display: "Jude", Long: "Jude", Short: "Jude"},
	{Display: "Revelation", Long: "Revelation", Short: "Rev"},

	// Deuterocanon
	{Display: "Tobit", Long: "Tobit", Short: "Tob"},
	{Display: "Judith", Long: "Judith", Short: "Jdt"},
	{Display: "Wisdom", Long: "Wisdom of Solomon", Short: "Wis"},
	{Display: "Sirach", Long: "Sirach", Short: "Sir"},
	{Display: "Baruch", Long: "Baruch", Short: "Bar"},
	{Display: "1 Maccabees", Long: "1 Maccabees", Short: "1Macc"},
	{Display: "2 Maccabees", Long: "2 Maccabees", Short: "2Macc"},
}

// DefaultTable returns a copy of the built-in canonical name table.
func DefaultTable() []NameEntry {
	out := make([]NameEntry, len(defaultBooks))
	copy(out, defaultBooks)
	return out
}
