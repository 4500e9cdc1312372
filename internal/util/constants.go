package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 文件上传相关常量
const (
	MimeImage = "image/"
	MimePDF   = "application/pdf"

	MaxUploadBytes = 5 << 20
)

// 需要失效的视图路径
const (
	ViewDashboard         = "/dashboard"
	ViewDashboardProjects = "/dashboard/projects"
	ViewChallenges        = "/dashboard/challenges"
	ViewPortfolioPrefix   = "/portfolio/"
)

func ProjectView(projectID string) string {
	return ViewDashboardProjects + "/" + projectID
}

func PortfolioView(username string) string {
	return ViewPortfolioPrefix + username
}

const ProviderGitHub = "github"
