package models

import "time"

type GuidanceMaterial struct {
	ID            int64     `json:"id"`
	Program       string    `json:"program"`
	SessionNumber int       `json:"session_number"`
	Title         string    `json:"title"`
	Content       *string   `json:"content"`
	PDFURL        *string   `json:"pdf_url"`
	AudioURL      *string   `json:"audio_url"`
	VideoURL      *string   `json:"video_url"`
	Links         *[]string `json:"links"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
