package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"Firewatch/CronJobs"
	"Firewatch/FiberConfig"
	"Firewatch/Firestore"
	"Firewatch/Models"
	"Firewatch/Notifications"
	"Firewatch/TaskEngine"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	Models.Connect()

	go func() {
		if err := Notifications.InitFirebase(); err != nil {
			log.Println("Firebase not available, push reminders disabled:", err)
		}
	}()

	var taskStore TaskEngine.TaskStore = Models.NewGormTaskStore(Models.DB)
	var scheduleStore TaskEngine.ScheduleStore = Models.NewGormScheduleStore(Models.DB)
	if os.Getenv("TASK_STORE") == "firestore" {
		store, err := Firestore.Connect(context.Background())
		if err != nil {
			log.Fatal("Failed to connect to Firestore:", err)
		}
		defer store.Close()
		taskStore = store
		scheduleStore = store
		log.Println("Task pipeline backed by Firestore")
	}

	horizonDays := TaskEngine.DefaultHorizonDays
	if h, err := strconv.Atoi(os.Getenv("HORIZON_DAYS")); err == nil && h > 0 {
		horizonDays = h
	}

	generator := CronJobs.NewTaskGenerator(taskStore, scheduleStore, horizonDays)
	if err := generator.Start(); err != nil {
		log.Fatal("Failed to start task generator:", err)
	}
	defer generator.Stop()

	FiberConfig.FiberConfig()
}
