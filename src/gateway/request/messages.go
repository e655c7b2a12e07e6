package request

type SendMessage struct {
	JobId        string `json:"jobId"`
	SenderWallet string `json:"senderWallet"`
	Content      string `json:"content"`
	Attachment   string `json:"attachment"`
}
