package jobdescription

// JobDescription documents a function code. ArquivoURL points at the PDF
// served under the public job-description prefix, when one was uploaded.
type JobDescription struct {
	ID               int64
	CodFuncao        string
	Titulo           string
	DescricaoSumaria string
	ConteudoHTML     string
	ArquivoURL       string
}
