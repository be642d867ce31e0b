package graphql

// Schema is the SDL describing the operations this endpoint supports. It is
// served on GET /graphql for client reference; execution is handled by the
// typed dispatch in this package.
const Schema = `type User {
  id: ID!
  name: String!
  email: String!
  createdAt: String!
}

type AuthPayload {
  user: User!
  success: Boolean!
}

type Post {
  id: ID!
  title: String!
  slug: String!
  content: String!
  excerpt: String
  published: Boolean!
  publishedAt: String
  createdAt: String!
  updatedAt: String!
  author: User!
  comments: [Comment!]!
}

type Comment {
  id: ID!
  content: String!
  createdAt: String!
  author: User!
  post: Post!
}

type DeletePostPayload {
  success: Boolean!
}

type LogoutPayload {
  success: Boolean!
}

input RegisterInput {
  name: String!
  email: String!
  password: String!
}

input LoginInput {
  email: String!
  password: String!
}

input CreatePostInput {
  title: String!
  content: String!
  excerpt: String
  published: Boolean
}

input UpdatePostInput {
  title: String
  content: String
  excerpt: String
  published: Boolean
}

input CreateCommentInput {
  postId: ID!
  content: String!
}

type Query {
  me: User
  posts: [Post!]!
  post(slug: String!): Post
  myPosts: [Post!]!
}

type Mutation {
  register(input: RegisterInput!): AuthPayload!
  login(input: LoginInput!): AuthPayload!
  logout: LogoutPayload!
  createPost(input: CreatePostInput!): Post!
  updatePost(id: ID!, input: UpdatePostInput!): Post!
  deletePost(id: ID!): DeletePostPayload!
  createComment(input: CreateCommentInput!): Comment!
}
`
