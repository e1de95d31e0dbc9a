package seeders

type userSeed struct {
	Name     string
	Email    string
	Password string
}

// Демо-пользователи. Пароли хэшируются при вставке.
var usersData = []userSeed{
	{Name: "Алия Рахимова", Email: "aliya@club.local", Password: "password123"},
	{Name: "Бахтиёр Садыков", Email: "bakhtiyor@club.local", Password: "password123"},
	{Name: "Карим Назаров", Email: "karim@club.local", Password: "password123"},
	{Name: "Дилноза Юсупова", Email: "dilnoza@club.local", Password: "password123"},
}

type clubSeed struct {
	Name        string
	Description string
	ClubType    string
	OwnerEmail  string
	// Emails остальных участников (владелец добавляется автоматически).
	MemberEmails []string
}

var clubsData = []clubSeed{
	{
		Name:        "Книжный клуб 'Переплёт'",
		Description: "Читаем по одной книге в месяц и спорим о прочитанном.",
		ClubType:    "book",
		OwnerEmail:  "aliya@club.local",
		MemberEmails: []string{
			"bakhtiyor@club.local", "karim@club.local", "dilnoza@club.local",
		},
	},
	{
		Name:        "Киноклуб 'Двадцать пятый кадр'",
		Description: "Фильм недели и обсуждение по пятницам.",
		ClubType:    "movie",
		OwnerEmail:  "bakhtiyor@club.local",
		MemberEmails: []string{
			"aliya@club.local", "karim@club.local",
		},
	},
}

type recommendationSeed struct {
	UserEmail   string
	Title       string
	Description string
}

// Рекомендации для демо-раунда первого клуба.
var recommendationsData = []recommendationSeed{
	{UserEmail: "aliya@club.local", Title: "Мастер и Маргарита", Description: "Классика, которую все откладывали."},
	{UserEmail: "bakhtiyor@club.local", Title: "Сто лет одиночества", Description: "Маркес в осеннем настроении."},
	{UserEmail: "karim@club.local", Title: "Пикник на обочине", Description: "Стругацкие, короткая и плотная."},
}
