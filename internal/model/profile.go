package model

import (
	"errors"
	"fmt"
	"strings"
)

// Profile 作品集主人的静态资料，进程内只读
type Profile struct {
	PersonalInfo PersonalInfo `json:"personalInfo" yaml:"personalInfo"`
	Skills       []Skill      `json:"skills" yaml:"skills"`
	Projects     []Project    `json:"projects" yaml:"projects"`
	Experience   []string     `json:"experience" yaml:"experience"`
	Education    []string     `json:"education" yaml:"education"`
	Achievements []string     `json:"achievements" yaml:"achievements"`
	Availability string       `json:"availability" yaml:"availability"`
	Stats        Stats        `json:"stats" yaml:"stats"`
	SocialLinks  []SocialLink `json:"socialLinks" yaml:"socialLinks"`
}

// PersonalInfo 个人信息
type PersonalInfo struct {
	Name      string `json:"name" yaml:"name"`
	Title     string `json:"title" yaml:"title"`
	Tagline   string `json:"tagline" yaml:"tagline"`
	Bio       string `json:"bio" yaml:"bio"`
	Location  string `json:"location" yaml:"location"`
	Email     string `json:"email" yaml:"email"`
	Phone     string `json:"phone,omitempty" yaml:"phone"`
	ResumeURL string `json:"resumeUrl,omitempty" yaml:"resumeUrl"`
}

// Skill 技能
type Skill struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Proficiency int    `json:"proficiency" yaml:"proficiency"` // 0-100
	Category    string `json:"category" yaml:"category"`       // programming, web, tools, soft
}

// Project 项目
type Project struct {
	ID              string   `json:"id" yaml:"id"`
	Title           string   `json:"title" yaml:"title"`
	Description     string   `json:"description" yaml:"description"`
	LongDescription string   `json:"longDescription,omitempty" yaml:"longDescription"`
	Technologies    []string `json:"technologies" yaml:"technologies"`
	DemoURL         string   `json:"demoUrl,omitempty" yaml:"demoUrl"`
	GithubURL       string   `json:"githubUrl,omitempty" yaml:"githubUrl"`
	Status          string   `json:"status" yaml:"status"` // completed, in-progress, planned
	Featured        bool     `json:"featured" yaml:"featured"`
	Category        string   `json:"category" yaml:"category"` // web, mobile, desktop, academic
}

// Stats 统计数字
type Stats struct {
	YearsOfStudy         int `json:"yearsOfStudy" yaml:"yearsOfStudy"`
	ProjectsCompleted    int `json:"projectsCompleted" yaml:"projectsCompleted"`
	TechnologiesLearned  int `json:"technologiesLearned" yaml:"technologiesLearned"`
	CertificationsEarned int `json:"certificationsEarned" yaml:"certificationsEarned"`
}

// SocialLink 社交链接
type SocialLink struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	URL      string `json:"url" yaml:"url"`
	Username string `json:"username,omitempty" yaml:"username"`
}

// Validate 校验资料完整性
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.PersonalInfo.Name) == "" {
		return errors.New("personalInfo.name 不能为空")
	}
	if strings.TrimSpace(p.PersonalInfo.Email) == "" {
		return errors.New("personalInfo.email 不能为空")
	}
	for _, s := range p.Skills {
		if s.Proficiency < 0 || s.Proficiency > 100 {
			return fmt.Errorf("技能 %s 熟练度超出范围: %d", s.ID, s.Proficiency)
		}
	}
	return nil
}

// Skill 按 ID 查找技能
func (p *Profile) Skill(id string) (Skill, bool) {
	for _, s := range p.Skills {
		if s.ID == id {
			return s, true
		}
	}
	return Skill{}, false
}

// FeaturedProjects 返回推荐项目，没有推荐项目时返回全部
func (p *Profile) FeaturedProjects() []Project {
	featured := make([]Project, 0, len(p.Projects))
	for _, pr := range p.Projects {
		if pr.Featured {
			featured = append(featured, pr)
		}
	}
	if len(featured) == 0 {
		return p.Projects
	}
	return featured
}

// ProjectsUsing 返回技术栈中包含任一技术的项目（不区分大小写，"C/C++" 视为 C 和 C++）
func (p *Profile) ProjectsUsing(techs ...string) []Project {
	var out []Project
	for _, pr := range p.Projects {
		if projectUses(pr, techs) {
			out = append(out, pr)
		}
	}
	return out
}

func projectUses(pr Project, techs []string) bool {
	for _, t := range pr.Technologies {
		for _, part := range strings.Split(t, "/") {
			for _, want := range techs {
				if strings.EqualFold(strings.TrimSpace(part), want) {
					return true
				}
			}
		}
	}
	return false
}
