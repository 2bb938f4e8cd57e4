package mail

type ImportReportEmailData struct {
	JobID   string
	Total   int
	Created int
	Updated int
	Skipped int
	Failed  int
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
}
