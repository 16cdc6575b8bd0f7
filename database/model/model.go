// Package model defines the gorm models stored by askboard.
package model

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// User is an account. Usernames are not unique and passwords are stored as
// entered.
type User struct {
	Id       int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Username string `json:"username" form:"username"`
	Password string `json:"-" form:"password"`
	Role     Role   `json:"role"`
}

// Classroom is a subject taught by one teacher, referenced by username.
type Classroom struct {
	Id      int    `json:"id" form:"id" gorm:"primaryKey;autoIncrement"`
	Subject string `json:"subject" form:"subject"`
	Teacher string `json:"teacher" form:"teacher_username"`
}

type Question struct {
	Id          int    `json:"id" gorm:"primaryKey;autoIncrement"`
	ClassroomId int    `json:"classroomId" gorm:"index"`
	Text        string `json:"text"`
	Votes       int    `json:"votes" gorm:"not null;default:0"`
}

// Enrollment links a user to a classroom. Pairs are kept unique by the
// service, not by the schema.
type Enrollment struct {
	Id          int `json:"id" gorm:"primaryKey;autoIncrement"`
	UserId      int `json:"userId" gorm:"index"`
	ClassroomId int `json:"classroomId" gorm:"index"`
}

// Vote records one user's upvote of one question.
type Vote struct {
	UserId     int `json:"userId" gorm:"primaryKey;autoIncrement:false"`
	QuestionId int `json:"questionId" gorm:"primaryKey;autoIncrement:false"`
}

type Setting struct {
	Id    int    `json:"id" form:"id" gorm:"primaryKey;autoIncrement"`
	Key   string `json:"key" form:"key"`
	Value string `json:"value" form:"value"`
}
