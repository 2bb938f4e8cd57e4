package mail

import (
	"bytes"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"
)

const importReportTemplate = `
<h2>Importação de leads {{.JobID}}</h2>
<p>Resumo do lote:</p>
<ul>
  <li>Total de linhas: {{.Total}}</li>
  <li>Criados: {{.Created}}</li>
  <li>Atualizados: {{.Updated}}</li>
  <li>Ignorados (CNPJ já cadastrado): {{.Skipped}}</li>
  <li>Com erro: {{.Failed}}</li>
</ul>
`

func NewEmailSender(host string, port int, user, password string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
	}
}

func (s *EmailSender) SendImportReport(to, jobID string, total, created, updated, skipped, failed int) error {
	data := ImportReportEmailData{
		JobID:   jobID,
		Total:   total,
		Created: created,
		Updated: updated,
		Skipped: skipped,
		Failed:  failed,
	}

	t, err := template.New("import-report").Parse(importReportTemplate)
	if err != nil {
		return fmt.Errorf("erro ao processar template de email: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return fmt.Errorf("erro ao processar template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", "nao-responda@liguemedicina.com")
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Importação de leads concluída: %d criados, %d com erro", created, failed))
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}

	return nil
}
