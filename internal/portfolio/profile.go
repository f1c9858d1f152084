// Package portfolio holds the site owner's static profile and the assistant
// persona prompt derived from it.
package portfolio

import (
	"fmt"
	"os"

	"github.com/portfolio/portfolio-assistant/internal/model"
	"gopkg.in/yaml.v3"
)

// Default 返回内置的作品集资料
func Default() *model.Profile {
	return &model.Profile{
		PersonalInfo: model.PersonalInfo{
			Name:      "Ajnish Kumar",
			Title:     "BCA Student & Developer",
			Tagline:   "Building tomorrow's solutions with today's code",
			Bio:       "BCA student at Vinoba Bhave University, passionate about programming and web development. Specializing in Java, C/C++, and building innovative web applications with a focus on clean code and user experience.",
			Location:  "Hazaribagh, Jharkhand",
			Email:     "ajnishkumar7070@gmail.com",
			Phone:     "+91 9608415521",
			ResumeURL: "/resume.html",
		},
		Skills: []model.Skill{
			{
				ID:          "java",
				Name:        "Java Programming",
				Description: "Principal area of academic interest with strong foundation in object-oriented programming, data structures, and algorithm implementation.",
				Proficiency: 85,
				Category:    "programming",
			},
			{
				ID:          "cpp",
				Name:        "C & C++",
				Description: "Proficient in system programming, memory management, and performance-critical applications with solid understanding of core concepts.",
				Proficiency: 80,
				Category:    "programming",
			},
			{
				ID:          "web",
				Name:        "Web Development",
				Description: "Hands-on experience with HTML, CSS, JavaScript, and modern frameworks. Building responsive and interactive web applications.",
				Proficiency: 78,
				Category:    "web",
			},
			{
				ID:          "dsa",
				Name:        "Data Structures & Algorithms",
				Description: "Actively building knowledge in DSA to develop analytical and problem-solving skills for efficient software solutions.",
				Proficiency: 75,
				Category:    "programming",
			},
			{
				ID:          "problem-solving",
				Name:        "Problem Solving",
				Description: "Developing analytical thinking and systematic approach to breaking down complex programming challenges.",
				Proficiency: 82,
				Category:    "soft",
			},
			{
				ID:          "cs-fundamentals",
				Name:        "Computer Science",
				Description: "Specializing in Computer Science fundamentals with focus on software development and programming methodologies.",
				Proficiency: 88,
				Category:    "programming",
			},
		},
		Projects: []model.Project{
			{
				ID:              "assignment-cover-generator",
				Title:           "Assignment Cover Generator",
				Description:     "Automated tool for generating professional assignment covers with customizable templates and formatting options.",
				LongDescription: "Helps students create professional-looking assignment covers with various templates, automatic formatting, and customizable fields.",
				Technologies:    []string{"HTML5", "CSS3", "JavaScript", "Responsive Design"},
				DemoURL:         "https://ajnish-kumar-sahu.github.io/assignment-cover-generator/",
				GithubURL:       "https://github.com/ajnish-kumar-sahu/assignment-cover-generator",
				Status:          "completed",
				Featured:        true,
				Category:        "web",
			},
			{
				ID:              "monthly-item-manager",
				Title:           "Monthly Item List Management System",
				Description:     "Comprehensive system for tracking and managing monthly inventory with CRUD operations and data persistence.",
				LongDescription: "An inventory management system built in C++ that tracks monthly items, manages categories, and generates reports with file-based storage.",
				Technologies:    []string{"C++", "Data Structures", "File Management", "CRUD Operations"},
				GithubURL:       "https://github.com/ajnish-kumar-sahu/Monthly-Item-List-Management-System",
				Status:          "completed",
				Featured:        true,
				Category:        "desktop",
			},
			{
				ID:              "portfolio-website",
				Title:           "Personal Portfolio Website",
				Description:     "Modern, responsive portfolio showcasing projects and skills with interactive design and smooth animations.",
				LongDescription: "A fully responsive portfolio website with smooth animations, interactive elements, dark mode, contact forms, and SEO optimization.",
				Technologies:    []string{"HTML5", "CSS3", "JavaScript", "Responsive Design"},
				GithubURL:       "https://github.com/ajnish-kumar-sahu/portfolio",
				Status:          "completed",
				Featured:        true,
				Category:        "web",
			},
			{
				ID:              "programming-solutions",
				Title:           "Programming Practice Solutions",
				Description:     "Collection of algorithmic solutions and data structure implementations in Java, C, and C++.",
				LongDescription: "A repository of coding solutions covering algorithmic problems, data structure implementations, and competitive programming challenges.",
				Technologies:    []string{"Java", "C/C++", "Algorithms", "Problem Solving"},
				GithubURL:       "https://github.com/ajnish-kumar-sahu/programming-solutions",
				Status:          "in-progress",
				Featured:        false,
				Category:        "academic",
			},
		},
		Experience: []string{
			"BCA Student at Vinoba Bhave University (2023-2026)",
			"Specializing in Computer Science with focus on Java programming",
			"Active in programming competitions and coding challenges",
			"Building practical applications and academic projects",
		},
		Education: []string{
			"Bachelor of Computer Applications (BCA) - Vinoba Bhave University",
			"Specialization: Computer Science and Programming",
			"Expected Graduation: 2026",
			"Location: Hazaribagh, Jharkhand",
		},
		Achievements: []string{
			"Completed 12+ programming projects",
			"Proficient in Java, C/C++, and web technologies",
			"Strong foundation in Data Structures and Algorithms",
			"Active contributor to open-source projects",
		},
		Availability: "Available for internships, collaborative projects, and freelance work",
		Stats: model.Stats{
			YearsOfStudy:         2,
			ProjectsCompleted:    12,
			TechnologiesLearned:  8,
			CertificationsEarned: 4,
		},
		SocialLinks: []model.SocialLink{
			{ID: "github", Name: "GitHub", URL: "https://github.com/ajnish-kumar-sahu", Username: "ajnish-kumar-sahu"},
			{ID: "linkedin", Name: "LinkedIn", URL: "https://linkedin.com/in/ajnish-kumar-20ag", Username: "ajnish-kumar-20ag"},
			{ID: "email", Name: "Email", URL: "mailto:ajnishkumar7070@gmail.com", Username: "ajnishkumar7070@gmail.com"},
			{ID: "phone", Name: "Phone", URL: "tel:+919608415521", Username: "+91 9608415521"},
		},
	}
}

// Load 从 YAML 文件加载资料，path 为空时返回内置资料
func Load(path string) (*model.Profile, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取资料文件失败: %w", err)
	}

	var profile model.Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("解析资料文件失败: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("资料校验失败: %w", err)
	}
	return &profile, nil
}
