package main

import (
	"nutriplan-backend/config"
	"nutriplan-backend/routes"
	"nutriplan-backend/utils"
)

func main() {
	utils.InitLogger()
	config.InitDB()
	r := routes.SetupRouter()
	r.Run(":8080")
}
