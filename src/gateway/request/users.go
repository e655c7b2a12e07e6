package request

import "time"

type Wallet struct {
	WalletAddress string `json:"walletAddress"`
}

type UpdateName struct {
	WalletAddress string `json:"walletAddress"`
	UserName      string `json:"userName"`
}

type UpdateRate struct {
	WalletAddress string   `json:"walletAddress"`
	HourlyRate    *float64 `json:"hourlyRate"`
}

type UpdateJob struct {
	WalletAddress  string `json:"walletAddress"`
	JobTitle       string `json:"jobTitle"`
	JobDescription string `json:"jobDescription"`
}

type UpdateBio struct {
	WalletAddress string `json:"walletAddress"`
	Bio           string `json:"bio"`
}

type UpdateSkills struct {
	WalletAddress string   `json:"walletAddress"`
	Skills        []string `json:"skills"`
}

type UpdateLanguage struct {
	WalletAddress string `json:"walletAddress"`
	Language      string `json:"language"`
	Proficiency   string `json:"proficiency"`
}

type UpdateEducation struct {
	WalletAddress string `json:"walletAddress"`
	School        string `json:"school"`
	Degree        string `json:"degree"`
}

type UpdateWorkHistory struct {
	WalletAddress string     `json:"walletAddress"`
	JobTitle      string     `json:"jobTitle"`
	Company       string     `json:"company"`
	StartDate     *time.Time `json:"startDate"`
	EndDate       *time.Time `json:"endDate"`
	Description   string     `json:"description"`
}

type DeleteWorkHistory struct {
	WalletAddress string `json:"walletAddress"`
	WorkHistoryId string `json:"workHistoryId"`
}

type UpdatePortfolio struct {
	WalletAddress string   `json:"walletAddress"`
	Title         string   `json:"title"`
	Role          string   `json:"role"`
	Description   string   `json:"description"`
	Skills        []string `json:"skills"`
	Content       string   `json:"content"`
}

type DeletePortfolio struct {
	WalletAddress string `json:"walletAddress"`
	PortfolioId   string `json:"portfolioId"`
}

// Avatar is an opaque reference, the file itself is stored elsewhere
type UploadAvatar struct {
	WalletAddress string `json:"walletAddress"`
	AvatarData    string `json:"avatarData"`
}
