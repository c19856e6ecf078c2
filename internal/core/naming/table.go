package naming

// Entry 通用描述與文化慣用菜名的對照
type Entry struct {
	Cuisine      string
	FamiliarName string
	Patterns     []string
	Signature    []string
}

var builtinEntries = []Entry{
	// Chinese
	{"Chinese", "Mapo Tofu",
		[]string{"spicy tofu with minced pork", "sichuan tofu", "spicy bean curd", "tofu in chili bean sauce", "spicy tofu with ground pork"},
		[]string{"tofu", "doubanjiang", "sichuan peppercorn", "chili bean paste", "ground pork"}},
	{"Chinese", "Kung Pao Chicken",
		[]string{"spicy chicken with peanuts", "sichuan chicken with peanuts", "chicken peanut stir fry"},
		[]string{"chicken", "peanuts", "dried chili", "sichuan peppercorn"}},
	{"Chinese", "Yangzhou Fried Rice",
		[]string{"egg fried rice", "fried rice with egg and vegetables", "special fried rice"},
		[]string{"rice", "egg", "peas", "scallion"}},
	{"Chinese", "Buddha's Delight",
		[]string{"vegetable stir fry", "mixed vegetable stir fry", "stir fried mixed vegetables"},
		[]string{"bok choy", "mushrooms", "tofu", "snow peas", "carrot"}},
	{"Chinese", "Hot and Sour Soup",
		[]string{"spicy sour soup", "sour and spicy soup"},
		[]string{"tofu", "mushrooms", "vinegar", "white pepper", "bamboo shoots"}},
	{"Chinese", "Congee",
		[]string{"rice porridge", "savory rice porridge", "rice gruel"},
		[]string{"rice", "ginger", "scallion"}},
	{"Chinese", "Char Siu",
		[]string{"barbecue pork", "bbq pork", "chinese roast pork"},
		[]string{"pork", "hoisin", "five spice", "honey"}},
	{"Chinese", "Dan Dan Noodles",
		[]string{"spicy sesame noodles", "sichuan noodles", "noodles with chili oil and sesame"},
		[]string{"noodles", "sesame paste", "chili oil", "ground pork"}},

	// Italian
	{"Italian", "Eggplant Parmigiana",
		[]string{"baked eggplant with tomato and cheese", "eggplant parmesan", "eggplant bake"},
		[]string{"eggplant", "tomato", "mozzarella", "parmesan", "basil"}},
	{"Italian", "Spaghetti Aglio e Olio",
		[]string{"garlic olive oil pasta", "spaghetti with garlic and oil", "garlic pasta"},
		[]string{"spaghetti", "garlic", "olive oil", "chili flakes", "parsley"}},
	{"Italian", "Pasta e Fagioli",
		[]string{"pasta and bean soup", "bean and pasta soup"},
		[]string{"pasta", "cannellini beans", "tomato", "celery"}},
	{"Italian", "Risotto ai Funghi",
		[]string{"mushroom risotto", "creamy mushroom rice"},
		[]string{"arborio rice", "mushrooms", "parmesan", "stock"}},
	{"Italian", "Minestrone",
		[]string{"italian vegetable soup", "vegetable soup with beans and pasta"},
		[]string{"zucchini", "beans", "carrot", "celery", "tomato"}},
	{"Italian", "Chicken Parmesan",
		[]string{"breaded chicken with tomato sauce and cheese", "chicken parm"},
		[]string{"chicken", "breadcrumbs", "mozzarella", "tomato sauce"}},
	{"Italian", "Caprese Salad",
		[]string{"tomato mozzarella salad", "tomato and mozzarella with basil"},
		[]string{"tomato", "mozzarella", "basil", "olive oil"}},

	// Mexican
	{"Mexican", "Chiles Rellenos",
		[]string{"stuffed peppers", "stuffed poblano peppers", "cheese stuffed peppers"},
		[]string{"poblano", "cheese", "egg"}},
	{"Mexican", "Black Bean Tacos",
		[]string{"bean tacos", "tacos with black beans"},
		[]string{"black beans", "tortillas", "salsa", "avocado"}},
	{"Mexican", "Chilaquiles",
		[]string{"tortilla chips in salsa", "fried tortillas with salsa"},
		[]string{"tortilla", "salsa", "queso fresco", "egg"}},
	{"Mexican", "Pozole",
		[]string{"hominy stew", "pork and hominy soup"},
		[]string{"hominy", "pork", "chili", "oregano"}},
	{"Mexican", "Guacamole",
		[]string{"avocado dip", "mashed avocado"},
		[]string{"avocado", "lime", "cilantro", "onion"}},
	{"Mexican", "Huevos Rancheros",
		[]string{"eggs with salsa and tortillas", "ranch style eggs"},
		[]string{"egg", "tortilla", "salsa", "beans"}},

	// Indian
	{"Indian", "Chana Masala",
		[]string{"chickpea curry", "spiced chickpeas", "chickpea stew"},
		[]string{"chickpeas", "tomato", "garam masala", "onion"}},
	{"Indian", "Dal Tadka",
		[]string{"lentil curry", "spiced lentils", "yellow lentil soup"},
		[]string{"lentils", "cumin", "turmeric", "ghee"}},
	{"Indian", "Palak Paneer",
		[]string{"spinach with cheese", "spinach curry with cottage cheese"},
		[]string{"spinach", "paneer", "garam masala", "cream"}},
	{"Indian", "Aloo Gobi",
		[]string{"potato and cauliflower curry", "spiced potatoes and cauliflower"},
		[]string{"potato", "cauliflower", "turmeric", "cumin"}},
	{"Indian", "Chicken Tikka Masala",
		[]string{"chicken in creamy tomato sauce", "creamy chicken curry"},
		[]string{"chicken", "yogurt", "tomato", "cream", "garam masala"}},
	{"Indian", "Vegetable Biryani",
		[]string{"spiced rice with vegetables", "vegetable rice pilaf"},
		[]string{"basmati rice", "saffron", "vegetables", "cardamom"}},

	// Japanese
	{"Japanese", "Miso Soup",
		[]string{"soybean paste soup", "tofu seaweed soup"},
		[]string{"miso", "tofu", "wakame", "dashi"}},
	{"Japanese", "Oyakodon",
		[]string{"chicken and egg rice bowl", "chicken egg bowl"},
		[]string{"chicken", "egg", "rice", "dashi"}},
	{"Japanese", "Yasai Tempura",
		[]string{"battered fried vegetables", "fried vegetables in batter"},
		[]string{"flour", "vegetables", "sweet potato", "dashi"}},
	{"Japanese", "Teriyaki Salmon",
		[]string{"glazed salmon", "salmon with sweet soy glaze"},
		[]string{"salmon", "soy sauce", "mirin", "sugar"}},
	{"Japanese", "Onigiri",
		[]string{"rice balls", "rice ball with filling"},
		[]string{"rice", "nori", "umeboshi"}},

	// Thai
	{"Thai", "Pad Thai",
		[]string{"stir fried rice noodles with peanuts", "thai fried noodles"},
		[]string{"rice noodles", "tamarind", "peanuts", "bean sprouts", "egg"}},
	{"Thai", "Green Curry",
		[]string{"green coconut curry", "thai green curry"},
		[]string{"coconut milk", "green curry paste", "thai basil", "eggplant"}},
	{"Thai", "Tom Yum",
		[]string{"hot and sour shrimp soup", "spicy lemongrass soup"},
		[]string{"lemongrass", "lime leaves", "galangal", "chili"}},
	{"Thai", "Som Tam",
		[]string{"green papaya salad", "papaya salad"},
		[]string{"green papaya", "lime", "fish sauce", "peanuts"}},

	// Korean
	{"Korean", "Bibimbap",
		[]string{"mixed rice bowl", "rice bowl with vegetables and egg"},
		[]string{"rice", "gochujang", "spinach", "egg", "bean sprouts"}},
	{"Korean", "Japchae",
		[]string{"glass noodle stir fry", "sweet potato noodles"},
		[]string{"glass noodles", "spinach", "sesame oil", "carrot"}},
	{"Korean", "Kimchi Jjigae",
		[]string{"kimchi stew", "spicy kimchi soup"},
		[]string{"kimchi", "tofu", "gochugaru", "pork"}},

	// French
	{"French", "Ratatouille",
		[]string{"provencal vegetable stew", "stewed summer vegetables"},
		[]string{"eggplant", "zucchini", "tomato", "bell pepper"}},
	{"French", "Coq au Vin",
		[]string{"chicken braised in wine", "chicken in red wine"},
		[]string{"chicken", "red wine", "mushrooms", "bacon"}},
	{"French", "Salade Niçoise",
		[]string{"tuna salad with potatoes and eggs", "nicoise salad"},
		[]string{"tuna", "potatoes", "egg", "olives", "green beans"}},

	// Greek
	{"Greek", "Spanakopita",
		[]string{"spinach pie", "spinach and feta pie"},
		[]string{"spinach", "feta", "phyllo"}},
	{"Greek", "Moussaka",
		[]string{"eggplant and meat casserole", "eggplant lamb bake"},
		[]string{"eggplant", "lamb", "bechamel", "tomato"}},
	{"Greek", "Gigantes Plaki",
		[]string{"baked giant beans", "giant beans in tomato sauce"},
		[]string{"giant beans", "tomato", "dill", "olive oil"}},

	// Middle Eastern
	{"Middle Eastern", "Falafel",
		[]string{"fried chickpea balls", "chickpea fritters"},
		[]string{"chickpeas", "parsley", "cumin", "garlic"}},
	{"Middle Eastern", "Shakshuka",
		[]string{"eggs poached in tomato sauce", "eggs in spicy tomato sauce"},
		[]string{"egg", "tomato", "bell pepper", "cumin"}},
	{"Middle Eastern", "Mujadara",
		[]string{"lentils and rice with onions", "lentil rice"},
		[]string{"lentils", "rice", "onion", "cumin"}},
	{"Middle Eastern", "Hummus",
		[]string{"chickpea dip", "chickpea spread"},
		[]string{"chickpeas", "tahini", "lemon", "garlic"}},

	// Vietnamese
	{"Vietnamese", "Pho",
		[]string{"vietnamese noodle soup", "beef noodle soup"},
		[]string{"rice noodles", "star anise", "beef", "herbs"}},
	{"Vietnamese", "Goi Cuon",
		[]string{"fresh spring rolls", "rice paper rolls"},
		[]string{"rice paper", "vermicelli", "herbs", "shrimp"}},
	{"Vietnamese", "Banh Mi",
		[]string{"vietnamese sandwich", "pickled vegetable baguette"},
		[]string{"baguette", "pickled carrot", "cilantro", "jalapeno"}},

	// American
	{"American", "Mac and Cheese",
		[]string{"macaroni with cheese sauce", "baked macaroni and cheese"},
		[]string{"macaroni", "cheddar", "milk", "butter"}},
	{"American", "Chili sin Carne",
		[]string{"bean chili", "vegetarian chili"},
		[]string{"kidney beans", "tomato", "chili powder", "cumin"}},
}
