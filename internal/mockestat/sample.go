package mockestat

// SampleType and SampleRevision key the built-in sample classification.
const (
	SampleType     = "10"
	SampleRevision = "04"
)

// sampleMaster is a small JSIC-shaped code list: three divisions, four
// classes. Divisions B and C have no classes.
const sampleMaster = `日本標準産業分類(令和5年6月設定)
分類項目名一覧
コード,項目名,説明
A,農業，林業,"この大分類には，農業及び林業を営む事業所が分類される。"
01,農業,"この中分類には，耕種農業，畜産農業を営む事業所が分類される。"
010,管理，補助的経済活動を行う事業所（01農業）,
0101,管理，補助的経済活動を行う事業所,"主として管理事務を行う本社，本所であって，
他の事業所の管理を行う事業所をいう。"
0102,その他の管理，補助的経済活動を行う事業所,
02,林業,"この中分類には，山林用苗木の育成，育林を営む事業所が分類される。"
020,管理，補助的経済活動を行う事業所（02林業）,
0201,管理，補助的経済活動を行う事業所,
0202,その他の管理，補助的経済活動を行う事業所,
B,漁業,"この大分類には，漁業を営む事業所が分類される。"
03,漁業（水産養殖業を除く）,"この中分類には，海面又は内水面において漁業を営む事業所が分類される。"
030,管理，補助的経済活動を行う事業所（03漁業）,
C,鉱業，採石業，砂利採取業,"この大分類には，鉱物を採掘する事業所が分類される。"
04,水産養殖業,"この中分類には，水産養殖業を営む事業所が分類される。"
05,鉱業，採石業，砂利採取業,"この中分類には，鉱物の採掘を営む事業所が分類される。"
050,管理，補助的経済活動を行う事業所（05鉱業，採石業，砂利採取業）,
`

// SampleClassCodes are the classes of the sample code list, in list order.
var SampleClassCodes = []string{"0101", "0102", "0201", "0202"}

// LoadSample registers the sample code list and an example page for every
// sample class.
func (s *Server) LoadSample() {
	s.SetMaster(SampleType, SampleRevision, []byte(sampleMaster))
	for _, code := range SampleClassCodes {
		example := "本社事務所（" + code + "）"
		unsuitable := "現業部門を持つ事業所"
		s.SetExample(SampleType, SampleRevision, code, Example{
			Example:           &example,
			UnsuitableExample: &unsuitable,
		})
	}
}
