package main

import (
	"os"

	"docuchat/backend/internal/app"
)

// @title           DocuChat API
// @version         1.0
// @description     Backend for the DocuChat single-page application: upload documents, ask questions, and stream grounded answers.
// @BasePath        /api
func main() {
	os.Exit(app.Run())
}
