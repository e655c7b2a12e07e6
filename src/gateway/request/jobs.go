package request

type CreateJob struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Budget             float64  `json:"budget"`
	Tags               []string `json:"tags"`
	Logo               string   `json:"logo"`
	Banner             string   `json:"banner"`
	ClientLocation     string   `json:"clientLocation"`
	PaymentVerified    bool     `json:"paymentVerified"`
	WalletAddress      string   `json:"walletAddress"`
	JobType            string   `json:"jobType"`
	ExperienceLevel    string   `json:"experienceLevel"`
	Responsibilities   []string `json:"responsibilities"`
	Requirements       []string `json:"requirements"`
	SmartContractJobId string   `json:"smartContractJobId"`
}

type ListJobs struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

type Apply struct {
	JobId         string `json:"jobId"`
	UserId        string `json:"userId"`
	UserName      string `json:"userName"`
	CoverLetter   string `json:"coverLetter"`
	WalletAddress string `json:"walletAddress"`
}

// Approve and decline
type Applicant struct {
	UserId string `json:"userId"`
}

type Reassign struct {
	NewApplicantWallet string `json:"newApplicantWallet"`
}
